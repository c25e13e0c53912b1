package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Warn
	Track
	Queue
	Key
	Link
)

var icons = map[Icon]*iconDef{
	Success: {
		emoji:   "✅",
		nerd:    "",
		plain:   "v",
		kaomoji: "(ᵔ◡ᵔ)",
		squares: "🟩",
	},
	Fail: {
		emoji:   "❌",
		nerd:    "",
		plain:   "x",
		kaomoji: "(╥﹏╥)",
		squares: "🟥",
	},
	Progress: {
		emoji:   "⏳",
		nerd:    "",
		plain:   "...",
		kaomoji: "(・_・ヾ",
		squares: "🟦",
	},
	Warn: {
		emoji:   "⚠️",
		nerd:    "",
		plain:   "!",
		kaomoji: "(°ロ°)",
		squares: "🟨",
	},
	Track: {
		emoji:   "🎶",
		nerd:    "",
		plain:   "~",
		kaomoji: "♪(´▽｀)",
		squares: "🟪",
	},
	Queue: {
		emoji:   "📜",
		nerd:    "",
		plain:   "#",
		kaomoji: "(￣▽￣)ノ",
		squares: "🟫",
	},
	Key: {
		emoji:   "🔑",
		nerd:    "",
		plain:   "*",
		kaomoji: "(¬‿¬)",
		squares: "⬛",
	},
	Link: {
		emoji:   "🔗",
		nerd:    "",
		plain:   "->",
		kaomoji: "(っ˘ω˘ς)",
		squares: "⬜",
	},
}
