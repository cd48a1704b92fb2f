package overlapmap

// CompareChrNames orders chromosome names the way humans (and "sort -V") do:
// runs of digits compare numerically, everything else byte-wise, and a
// digit run sorts before a non-digit run at the same offset.  So chr2 <
// chr10 < chrM < chrX.  It returns a negative number, zero or a positive
// number like strings.Compare.
func CompareChrNames(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		aDigit, bDigit := isDigit(a[i]), isDigit(b[j])
		switch {
		case aDigit && bDigit:
			// Skip leading zeros, then the longer run is the larger number.
			for i < len(a) && a[i] == '0' {
				i++
			}
			for j < len(b) && b[j] == '0' {
				j++
			}
			iEnd, jEnd := i, j
			for iEnd < len(a) && isDigit(a[iEnd]) {
				iEnd++
			}
			for jEnd < len(b) && isDigit(b[jEnd]) {
				jEnd++
			}
			if d := (iEnd - i) - (jEnd - j); d != 0 {
				return d
			}
			for ; i < iEnd; i, j = i+1, j+1 {
				if a[i] != b[j] {
					return int(a[i]) - int(b[j])
				}
			}
		case aDigit:
			return -1
		case bDigit:
			return 1
		default:
			if a[i] != b[j] {
				return int(a[i]) - int(b[j])
			}
			i++
			j++
		}
	}
	if d := (len(a) - i) - (len(b) - j); d != 0 {
		return d
	}
	// Equal up to leading zeros ("chr01" vs "chr1"); fall back to bytes so the
	// order stays total.
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
