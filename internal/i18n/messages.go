package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	en := language.English
	message.SetString(en, "title.home", "Prize Wheel")
	message.SetString(en, "home.create", "Open a new table")
	message.SetString(en, "table.join", "Join")
	message.SetString(en, "table.username", "Your name")
	message.SetString(en, "table.spin", "Spin")
	message.SetString(en, "table.spinning", "Spinning...")
	message.SetString(en, "table.no_spins", "No spins left")
	message.SetString(en, "table.balance", "Balance: %d")
	message.SetString(en, "table.spins_left", "Spins: %d")
	message.SetString(en, "table.players", "Players")
	message.SetString(en, "table.buy", "Buy spins")
	message.SetString(en, "table.invite", "Invite link")
	message.SetString(en, "table.history", "Recent spins")
	message.SetString(en, "table.package", "%s for %d")
	message.SetString(en, "table.language", "Language")
	message.SetString(en, "table.leave", "Leave table")
	message.SetString(en, "table.fairness", "Fairness")
	message.SetString(en, "table.seed_hash", "Server seed hash")
	message.SetString(en, "table.rotate_seed", "Reveal seed")
	message.SetString(en, "table.revealed_seeds", "Revealed seeds")
	message.SetString(en, "result.won", "You won: %s")
	message.SetString(en, "result.spinner", "%s spun: %s")

	it := language.Italian
	message.SetString(it, "title.home", "Ruota della Fortuna")
	message.SetString(it, "home.create", "Apri un nuovo tavolo")
	message.SetString(it, "table.join", "Entra")
	message.SetString(it, "table.username", "Il tuo nome")
	message.SetString(it, "table.spin", "Gira la Ruota")
	message.SetString(it, "table.spinning", "La ruota gira...")
	message.SetString(it, "table.no_spins", "Nessuno spin disponibile")
	message.SetString(it, "table.balance", "Saldo: %d")
	message.SetString(it, "table.spins_left", "Spin disponibili: %d")
	message.SetString(it, "table.players", "Giocatori")
	message.SetString(it, "table.buy", "Compra Spin")
	message.SetString(it, "table.invite", "Link di invito")
	message.SetString(it, "table.history", "Ultimi giri")
	message.SetString(it, "table.package", "%s per %d")
	message.SetString(it, "table.language", "Lingua")
	message.SetString(it, "table.leave", "Esci dal tavolo")
	message.SetString(it, "table.fairness", "Equità")
	message.SetString(it, "table.seed_hash", "Hash del seed del server")
	message.SetString(it, "table.rotate_seed", "Rivela il seed")
	message.SetString(it, "table.revealed_seeds", "Seed rivelati")
	message.SetString(it, "result.won", "Hai vinto: %s")
	message.SetString(it, "result.spinner", "%s ha girato: %s")
}
