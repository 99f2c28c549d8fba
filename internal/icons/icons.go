// Package icons resolves icon keys authored in the CMS to the fixed set the
// front end can draw.
package icons

import "strings"

type Icon string

const (
	Heart       Icon = "heart"
	Home        Icon = "home"
	Users       Icon = "users"
	Calendar    Icon = "calendar"
	Phone       Icon = "phone"
	Stethoscope Icon = "stethoscope"
	HandHelp    Icon = "hand-helping"
	Utensils    Icon = "utensils"
	Car         Icon = "car"
	BookOpen    Icon = "book-open"
	Gift        Icon = "gift"
	FileText    Icon = "file-text"

	// Fallback is drawn for keys outside the table.
	Fallback Icon = "circle-help"
)

var table = map[string]Icon{
	"heart":        Heart,
	"home":         Home,
	"house":        Home,
	"users":        Users,
	"people":       Users,
	"calendar":     Calendar,
	"events":       Calendar,
	"phone":        Phone,
	"stethoscope":  Stethoscope,
	"health":       Stethoscope,
	"hand-helping": HandHelp,
	"volunteer":    HandHelp,
	"utensils":     Utensils,
	"meals":        Utensils,
	"car":          Car,
	"transport":    Car,
	"book-open":    BookOpen,
	"education":    BookOpen,
	"gift":         Gift,
	"donate":       Gift,
	"file-text":    FileText,
	"report":       FileText,
}

// Lookup returns the icon for key. ok is false and the icon is Fallback when
// the key is unknown.
func Lookup(key string) (Icon, bool) {
	icon, ok := table[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Fallback, false
	}
	return icon, true
}
