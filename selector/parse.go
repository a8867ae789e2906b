package selector

import (
	"strconv"
	"strings"
)

// groupingReplacer strips the thousands separators tolerated in decimal block
// input: ASCII comma, underscore and apostrophe, plus the space variants
// produced by locale-aware number formatting.
var groupingReplacer = strings.NewReplacer(
	",", "",
	"_", "",
	"'", "",
	" ", "",
	" ", "", // no-break space
	" ", "", // narrow no-break space
)

// ParseBlockText converts raw user input into a block number. Text with a 0x
// prefix is read as hexadecimal; anything else is read as a decimal integer
// with grouping separators removed first. Text that parses as neither yields
// 0, never an error.
func ParseBlockText(raw string) int64 {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "0x") {
		v, err := strconv.ParseInt(s[2:], 16, 64)
		if err != nil {
			return 0
		}

		return v
	}

	v, err := strconv.ParseInt(groupingReplacer.Replace(s), 10, 64)
	if err != nil {
		return 0
	}

	return v
}
