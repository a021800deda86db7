package spatial

// Base32 encoding for geohash
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// EncodeGeohash encodes latitude and longitude into a geohash string
// precision: number of characters in the geohash (1-12)
func EncodeGeohash(lat, lon float64, precision int) string {
	if precision < 1 {
		precision = 1
	}
	if precision > 12 {
		precision = 12
	}

	latMin, latMax := -90.0, 90.0
	lonMin, lonMax := -180.0, 180.0

	geohash := make([]byte, 0, precision)
	bits, ch := 0, 0
	evenBit := true

	for len(geohash) < precision {
		if evenBit {
			mid := (lonMin + lonMax) / 2
			if lon > mid {
				ch |= 1 << (4 - bits)
				lonMin = mid
			} else {
				lonMax = mid
			}
		} else {
			mid := (latMin + latMax) / 2
			if lat > mid {
				ch |= 1 << (4 - bits)
				latMin = mid
			} else {
				latMax = mid
			}
		}
		evenBit = !evenBit

		bits++
		if bits == 5 {
			geohash = append(geohash, base32[ch])
			bits, ch = 0, 0
		}
	}

	return string(geohash)
}

// ValidGeohash reports whether s only uses geohash base32 characters.
func ValidGeohash(s string) bool {
	if s == "" || len(s) > 12 {
		return false
	}
	for i := 0; i < len(s); i++ {
		found := false
		for j := 0; j < len(base32); j++ {
			if s[i] == base32[j] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
