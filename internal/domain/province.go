package domain

// Provinces lists the administrative regions a user may pick, in display order.
var Provinces = []string{
	"Central Province",
	"Copperbelt Province",
	"Eastern Province",
	"Luapula Province",
	"Lusaka Province",
	"Muchinga Province",
	"Northern Province",
	"North-Western Province",
	"Southern Province",
	"Western Province",
}

var provinceRank = func() map[string]int {
	m := make(map[string]int, len(Provinces))
	for i, p := range Provinces {
		m[p] = i
	}
	return m
}()

func IsValidProvince(p string) bool {
	_, ok := provinceRank[p]
	return ok
}

// ProvinceRank returns the display position of p, or -1 for unknown names.
func ProvinceRank(p string) int {
	if r, ok := provinceRank[p]; ok {
		return r
	}
	return -1
}
