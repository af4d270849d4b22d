package cart

import (
	"strings"
	"unicode/utf8"
)

// Glyphs for the character codes that aren't plain ASCII. Some are emoji
// followed by a variation selector so they are listed as strings, not runes.
var (
	glyphsLow = []string{
		"▮", "■", "□", "⁙", "⁘", "‖", "◀", "▶", "「", "」", "¥", "•", "、", "。", "゛", "゜",
	}
	glyphsHigh = []string{
		"█", "▒", "🐱", "⬇️", "░", "✽", "●", "♥", "☉", "웃", "⌂", "⬅️", "😐",
		"♪", "🅾️", "◆", "…", "➡️", "★", "⧗", "⬆️", "ˇ", "∧", "❎", "▤", "▥",
	}
	kana = "あいうえおかきくけこさしすせそたちつてとなにぬねのはひふへほまみむめもやゆよらりるれろわをんっゃゅょ" +
		"アイウエオカキクケコサシスセソタチツテトナニヌネノハヒフヘホマミムメモヤユヨラリルレロワヲンッャュョ"
)

var (
	p8scii  [256]string
	reverse = make(map[string]byte)
	longest int
)

func init() {
	for i := 0; i < 16; i++ {
		p8scii[i] = string(rune(i))
	}
	for i, g := range glyphsLow {
		p8scii[16+i] = g
	}
	for i := 32; i < 127; i++ {
		p8scii[i] = string(rune(i))
	}
	p8scii[127] = "○"
	for i, g := range glyphsHigh {
		p8scii[128+i] = g
	}
	i := 128 + len(glyphsHigh)
	for _, r := range kana {
		p8scii[i] = string(r)
		i++
	}
	p8scii[254] = "◜"
	p8scii[255] = "◝"

	for i, g := range p8scii {
		reverse[g] = byte(i)
		if len(g) > longest {
			longest = len(g)
		}
	}
}

// ToUTF8 converts code in the console character set to UTF-8.
func ToUTF8(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		sb.WriteString(p8scii[c])
	}
	return sb.String()
}

// FromUTF8 converts UTF-8 text to the console character set. Characters with
// no equivalent become '?'.
func FromUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for len(s) > 0 {
		n := longest
		if n > len(s) {
			n = len(s)
		}
		matched := false
		for ; n > 0; n-- {
			if c, ok := reverse[s[:n]]; ok {
				out = append(out, c)
				s = s[n:]
				matched = true
				break
			}
		}
		if !matched {
			_, size := utf8.DecodeRuneInString(s)
			out = append(out, '?')
			s = s[size:]
		}
	}
	return out
}
