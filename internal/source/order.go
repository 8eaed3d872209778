package source

import (
	"path/filepath"
	"strconv"
	"strings"
)

// CompareNames orders page filenames. Names whose stem is an integer sort
// numerically and ahead of all other names; the rest sort lexically. Equal
// numeric stems fall back to the full name so the order is total.
func CompareNames(a, b string) int {
	na, aNum := numericStem(a)
	nb, bNum := numericStem(b)
	switch {
	case aNum && bNum:
		if na < nb {
			return -1
		}
		if na > nb {
			return 1
		}
	case aNum:
		return -1
	case bNum:
		return 1
	}
	return strings.Compare(a, b)
}

func numericStem(name string) (int64, bool) {
	base := filepath.Base(name)
	stem := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	n, err := strconv.ParseInt(stem, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
