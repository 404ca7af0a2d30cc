package differ

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys are the English texts; only translations are registered.
const (
	msgNone        = "none"
	msgSourceA     = "local source"
	msgSourceB     = "authority source"
	msgSideSummary = "types: %[1]s | items: %[2]s"

	msgEntityOnly      = "Entity %[1]s exists only in %[2]s."
	msgKnownMissingA   = "Entity %[1]s exists in %[2]s but has no items in %[3]s."
	msgCountMismatch   = "Item count differs for entity %[1]s"
	msgTypesOnly       = "Item types %[1]s exist only in %[2]s for entity %[3]s"
	msgTypesItemsOnlyB = "Items and item types (%[1]s) of entity %[2]s exist only in %[3]s"
	msgItemsOnly       = "Items %[1]s of entity %[2]s exist only in %[3]s"
	msgStatus          = "Status differs for item %[1]q of entity %[2]s"

	msgReasonCount    = "Item count differs: %[1]s (%[2]s), %[3]s (%[4]s)"
	msgReasonTypes    = "Item types differ"
	msgReasonGroup    = "Group differs: %[1]s (%[2]s), %[3]s (%[4]s)"
	msgReasonSubgroup = "Subgroup differs: %[1]s (%[2]s), %[3]s (%[4]s)"
	msgReasonItems    = "Items differ"
	msgReasonStatus   = "Status mismatch: %[1]s"
	msgStatusPair     = "%[1]s: %[2]s (%[3]s), %[4]s (%[5]s)"
)

var hebrew = map[string]string{
	msgNone:        "אין",
	msgSourceA:     "גיליון פלוגה",
	msgSourceB:     "גיליון גדודי",
	msgSideSummary: "סוגי פריטים: %[1]s | פריטים: %[2]s",

	msgEntityOnly:      "חייל עם מספר אישי %[1]s קיים רק ב%[2]s.",
	msgKnownMissingA:   "חייל עם מספר אישי %[1]s קיים ב%[2]s אך ללא פריטים ב%[3]s.",
	msgCountMismatch:   "מספר פריטים שונה עבור חייל %[1]s",
	msgTypesOnly:       "סוגי פריטים %[1]s קיימים רק ב%[2]s עבור חייל %[3]s",
	msgTypesItemsOnlyB: "פריטים וסוגי פריטים (%[1]s) של חייל %[2]s קיימים רק ב%[3]s",
	msgItemsOnly:       "פריטים %[1]s של חייל %[2]s קיימים רק ב%[3]s",
	msgStatus:          "סטטוס שונה עבור פריט %[1]q של חייל %[2]s",

	msgReasonCount:    "מספר פריטים שונה: %[1]s (%[2]s), %[3]s (%[4]s)",
	msgReasonTypes:    "סוגי פריטים שונים",
	msgReasonGroup:    "פלוגה שונה: %[1]s (%[2]s), %[3]s (%[4]s)",
	msgReasonSubgroup: "מחלקה שונה: %[1]s (%[2]s), %[3]s (%[4]s)",
	msgReasonItems:    "פריטים שונים",
	msgReasonStatus:   "אי התאמת סטטוס: %[1]s",

	string(EntityOnlyInA):           "חייל קיים רק בגיליון פלוגה",
	string(EntityOnlyInB):           "חייל קיים רק בגיליון גדודי",
	string(KnownEntityMissingFromA): "חייל קיים בגיליון גדודי אך ללא פריטים בגיליון פלוגה",
	string(ItemCountMismatch):       "מספר פריטים שונה",
	string(TypesOnlyInA):            "סוגי פריטים קיימים רק בגיליון פלוגה",
	string(TypesOnlyInB):            "סוגי פריטים קיימים רק בגיליון גדודי",
	string(TypesAndItemsOnlyInB):    "פריטים וסוגי פריטים קיימים רק בגיליון גדודי",
	string(ItemsOnlyInB):            "פריטים קיימים רק בגיליון גדודי",
	string(ItemsOnlyInA):            "פריטים קיימים רק בגיליון פלוגה",
	string(StatusMismatch):          "אי התאמת סטטוס פריט",
	string(EntityMismatch):          "אי התאמה בפריטים/סוגים/פרטי חייל",
	string(TypesDiffer):             "סוגי פריטים שונים",
	string(ItemsDiffer):             "פריטים שונים",
	string(GroupMismatch):           "פלוגה שונה",
	string(SubgroupMismatch):        "מחלקה שונה",
}

var messages = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range hebrew {
		if err := b.SetString(language.Hebrew, key, text); err != nil {
			panic(err)
		}
	}
	return b
}

func newPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(messages))
}
