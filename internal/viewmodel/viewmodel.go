package viewmodel

import "spinwheel/internal/wheel"

// LanguageOption is a language choice for the create-table form.
type LanguageOption struct {
	Code     string
	Label    string
	Selected bool
}

// HomePage holds data for the landing page.
type HomePage struct {
	Lang          string
	Title         string
	CreateLabel   string
	LanguageLabel string
	Languages     []LanguageOption
}

// TablePage holds data for the main table page template.
type TablePage struct {
	Lang          string
	Title         string
	TableID       string
	InviteURL     string
	InviteLabel   string
	HasPlayer     bool
	PlayerName    string
	JoinLabel     string
	UsernameLabel string
	Wheel         WheelFragment
	Controls      ControlsFragment
	Result        ResultFragment
	Players       PlayersFragment
	Buy           BuyFragment
	History       HistoryFragment
	Fairness      FairnessFragment
}

// WheelFragment holds what the renderer needs for one frame.
type WheelFragment struct {
	TableID  string
	Size     int
	Sectors  []wheel.Sector
	Rotation float64
	Pointer  float64
}

// ControlsFragment holds the spin button state for one viewer.
type ControlsFragment struct {
	TableID      string
	Label        string
	Disabled     bool
	Spinning     bool
	BalanceLabel string
	SpinsLabel   string
	LeaveLabel   string
	HasPlayer    bool
}

// ResultFragment holds the settled result banner.
type ResultFragment struct {
	Visible bool
	Message string
	Spinner string
	Win     bool
	// Proof is the fairness commitment, shown as a tooltip.
	Proof string
}

// PlayerEntry holds a player's credits for rendering.
type PlayerEntry struct {
	Name    string
	Balance int
	Spins   int
	Self    bool
}

// PlayersFragment holds data for the players panel.
type PlayersFragment struct {
	Heading string
	Players []PlayerEntry
}

// PackageOption is a purchasable spin package.
type PackageOption struct {
	Key        string
	Label      string
	Affordable bool
}

// BuyFragment holds the purchase form.
type BuyFragment struct {
	TableID  string
	Heading  string
	Visible  bool
	Packages []PackageOption
}

// HistoryEntry is one past spin.
type HistoryEntry struct {
	Text  string
	Win   bool
	At    string
	Proof string
}

// HistoryFragment holds recent spins.
type HistoryFragment struct {
	Heading string
	Entries []HistoryEntry
}

// OddsEntry is one sector's chance of being drawn.
type OddsEntry struct {
	Label   string
	Percent string
}

// FairnessFragment holds the seed commitment and the sector odds.
type FairnessFragment struct {
	TableID       string
	Heading       string
	SeedHashLabel string
	SeedHash      string
	Odds          []OddsEntry
	CanRotate     bool
	RotateLabel   string
	RevealedLabel string
}
