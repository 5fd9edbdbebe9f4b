//go:build linux

package hook

// usKeymap maps evdev key codes to their unshifted and shifted
// characters on a US layout. Keys with no textual payload are absent.
var usKeymap = map[uint16][2]string{
	2:  {"1", "!"},
	3:  {"2", "@"},
	4:  {"3", "#"},
	5:  {"4", "$"},
	6:  {"5", "%"},
	7:  {"6", "^"},
	8:  {"7", "&"},
	9:  {"8", "*"},
	10: {"9", "("},
	11: {"0", ")"},
	12: {"-", "_"},
	13: {"=", "+"},
	15: {"\t", "\t"},
	16: {"q", "Q"},
	17: {"w", "W"},
	18: {"e", "E"},
	19: {"r", "R"},
	20: {"t", "T"},
	21: {"y", "Y"},
	22: {"u", "U"},
	23: {"i", "I"},
	24: {"o", "O"},
	25: {"p", "P"},
	26: {"[", "{"},
	27: {"]", "}"},
	28: {"\n", "\n"},
	30: {"a", "A"},
	31: {"s", "S"},
	32: {"d", "D"},
	33: {"f", "F"},
	34: {"g", "G"},
	35: {"h", "H"},
	36: {"j", "J"},
	37: {"k", "K"},
	38: {"l", "L"},
	39: {";", ":"},
	40: {"'", "\""},
	41: {"`", "~"},
	43: {"\\", "|"},
	44: {"z", "Z"},
	45: {"x", "X"},
	46: {"c", "C"},
	47: {"v", "V"},
	48: {"b", "B"},
	49: {"n", "N"},
	50: {"m", "M"},
	51: {",", "<"},
	52: {".", ">"},
	53: {"/", "?"},
	57: {" ", " "},
	96: {"\n", "\n"}, // keypad enter
}

// escape has no shifted variant but clears partial triggers, so it is
// delivered as its control character.
const keyEsc = 1

// keyCodeToString translates an evdev key code to its character, or ""
// for keys without a textual payload.
func keyCodeToString(code uint16, shift bool) string {
	if code == keyEsc {
		return "\x1b"
	}
	pair, ok := usKeymap[code]
	if !ok {
		return ""
	}
	if shift {
		return pair[1]
	}
	return pair[0]
}
