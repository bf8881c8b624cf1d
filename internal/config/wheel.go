package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"spinwheel/internal/wheel"
)

//go:embed wheel.yaml
var defaultWheel []byte

// WheelFile is the YAML wheel definition.
type WheelFile struct {
	Spin     SpinConfig      `yaml:"spin"`
	Player   PlayerConfig    `yaml:"player"`
	Sectors  []SectorConfig  `yaml:"sectors" validate:"required,min=1,dive"`
	Packages []PackageConfig `yaml:"packages" validate:"dive"`
}

type SpinConfig struct {
	Turns          int           `yaml:"turns" validate:"gte=0,lte=50"`
	Duration       time.Duration `yaml:"duration" validate:"gt=0"`
	PointerDegrees *float64      `yaml:"pointer_degrees"`
}

type PlayerConfig struct {
	StartingBalance int `yaml:"starting_balance" validate:"gte=0"`
	StartingSpins   int `yaml:"starting_spins" validate:"gte=0"`
}

type SectorConfig struct {
	Label  string  `yaml:"label" validate:"required"`
	Payout float64 `yaml:"payout" validate:"gte=0"`
	Color  string  `yaml:"color" validate:"required,hexcolor"`
	Weight float64 `yaml:"weight" validate:"gt=0"`
}

// PackageConfig is a purchasable bundle of spins.
type PackageConfig struct {
	Key   string `yaml:"key" validate:"required"`
	Spins int    `yaml:"spins" validate:"gt=0"`
	Price int    `yaml:"price" validate:"gte=0"`
	Label string `yaml:"label" validate:"required"`
}

var validate = validator.New()

// DefaultWheel returns the embedded wheel definition.
func DefaultWheel() (*WheelFile, error) {
	return ParseWheel(defaultWheel)
}

// LoadWheel reads path, or the embedded default when path is empty.
func LoadWheel(path string) (*WheelFile, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultWheel()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wheel file: %w", err)
	}
	return ParseWheel(b)
}

// ParseWheel decodes and validates a wheel definition.
func ParseWheel(b []byte) (*WheelFile, error) {
	var wf WheelFile
	if err := yaml.Unmarshal(b, &wf); err != nil {
		return nil, fmt.Errorf("decode wheel: %w", err)
	}
	if err := validate.Struct(&wf); err != nil {
		return nil, fmt.Errorf("validate wheel: %w", err)
	}
	seen := make(map[string]struct{}, len(wf.Packages))
	for _, p := range wf.Packages {
		if _, dup := seen[p.Key]; dup {
			return nil, fmt.Errorf("validate wheel: duplicate package %q", p.Key)
		}
		seen[p.Key] = struct{}{}
	}
	return &wf, nil
}

// Wheel builds the sector model.
func (wf *WheelFile) Wheel() (*wheel.Wheel, error) {
	sectors := make([]wheel.Sector, 0, len(wf.Sectors))
	for _, s := range wf.Sectors {
		sectors = append(sectors, wheel.Sector{
			Label:  s.Label,
			Payout: s.Payout,
			Color:  s.Color,
			Weight: s.Weight,
		})
	}
	return wheel.New(sectors)
}

// EngineConfig converts the spin section to engine settings. A missing
// pointer_degrees puts the pointer at the top.
func (wf *WheelFile) EngineConfig() wheel.Config {
	pointer := wheel.DefaultPointer
	if wf.Spin.PointerDegrees != nil {
		pointer = *wf.Spin.PointerDegrees * math.Pi / 180
	}
	return wheel.Config{
		Turns:    wf.Spin.Turns,
		Duration: wf.Spin.Duration,
		Pointer:  pointer,
	}
}
