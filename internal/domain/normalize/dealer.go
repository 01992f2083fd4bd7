package normalize

import "strings"

// UnknownDealer is shown for listings without a dealer name.
const UnknownDealer = "Sin Información"

// dealerNames maps substrings of scraped dealer names to their display name.
// More specific needles come first.
var dealerNames = []struct {
	needles []string
	display string
}{
	{[]string{"barcelona"}, "Barcelona Premium"},
	{[]string{"oliva"}, "Oliva Motor"},
	{[]string{"grünblau", "grunblau"}, "Grünblau Motor"},
	{[]string{"quadis"}, "Quadis"},
	{[]string{"motor munich"}, "Motor Munich"},
	{[]string{"movitransa"}, "Movitransa"},
	{[]string{"vehinter"}, "Vehinter"},
	{[]string{"adler"}, "Adler Motor"},
	{[]string{"fersan"}, "Automóviles Fersan"},
	{[]string{"automoviles", "automóviles"}, "Automóviles"},
	{[]string{"celtamotor"}, "Celtamotor"},
	{[]string{"proa premium"}, "Proa Premium"},
	{[]string{"proa"}, "Proa"},
	{[]string{"lugauto"}, "Lugauto"},
	{[]string{"fuenteolid"}, "BMW Fuenteolid"},
	{[]string{"bmw marcos"}, "BMW Marcos"},
	{[]string{"enekuri"}, "Enekuri Motor"},
	{[]string{"automotor"}, "Automotor"},
	{[]string{"momentum"}, "Momentum"},
	{[]string{"movilnorte"}, "Movilnorte"},
	{[]string{"augusta"}, "Augusta"},
	{[]string{"triocar"}, "Triocar"},
	{[]string{"san pablo"}, "San Pablo Motor"},
	{[]string{"auto premier"}, "Auto Premier"},
	{[]string{"hispamovil"}, "Hispamovil"},
	{[]string{"bymycar"}, "BYmyCAR"},
	{[]string{"caetano"}, "Caetano"},
	{[]string{"bernesga"}, "Bernesga Motor"},
	{[]string{"maberauto"}, "Maberauto"},
	{[]string{"pruna"}, "Pruna Motor"},
	{[]string{"tormes"}, "Tormes Motor"},
	{[]string{"mandel"}, "Mandel Motor"},
	{[]string{"lurauto"}, "Lurauto"},
	{[]string{"san rafael"}, "San Rafael Motor"},
	{[]string{"amiocar"}, "Amiocar"},
	{[]string{"marmotor"}, "Marmotor"},
	{[]string{"motor gorbea"}, "Motor Gorbea"},
	{[]string{"novomóvil", "novomovil"}, "Novomóvil"},
	{[]string{"cabrero"}, "Cabrero"},
	{[]string{"lizaga"}, "Lizaga"},
	{[]string{"unicars"}, "Unicars"},
	{[]string{"burgocar"}, "Burgocar"},
	{[]string{"avilcar"}, "Avilcar"},
	{[]string{"ilbira"}, "Ilbira Motor"},
	{[]string{"carteya"}, "Carteya Motor"},
	{[]string{"motri"}, "Motri Motor"},
	{[]string{"albamocion"}, "Albamocion"},
	{[]string{"ceres"}, "Ceres Motor"},
	{[]string{"murcia premium"}, "Murcia Premium"},
	{[]string{"cartagena premium"}, "Cartagena Premium"},
	{[]string{"mini españa", "mini espana"}, "MINI España Oficial"},
}

// DealerName returns the display name of a scraped dealer name.
func DealerName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return UnknownDealer
	}
	lower := strings.ToLower(trimmed)
	for _, d := range dealerNames {
		for _, n := range d.needles {
			if strings.Contains(lower, n) {
				return d.display
			}
		}
	}
	return trimmed
}
