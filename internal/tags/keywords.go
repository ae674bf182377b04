package tags

// Статические таблицы ключевых слов для тегирования.
// Порядок проверки внутри категории не важен: первое совпадение
// по любому ключевому слову закрепляет значение тега.

var brandKeywords = map[string][]string{
	"nike":       {"nike", "air max", "air force", "dunk", "blazer", "cortez", "vapormax", "pegasus"},
	"adidas":     {"adidas", "yeezy", "boost", "ultraboost", "nmd", "gazelle", "samba", "campus"},
	"jordan":     {"jordan", "air jordan", "aj1", "aj4", "aj11", "jumpman"},
	"newbalance": {"new balance", "nb", "990", "991", "992", "993", "2002r", "550"},
	"asics":      {"asics", "gel", "gel-lyte", "gel-kayano", "gel-1090"},
	"puma":       {"puma", "suede", "clyde", "rs-x"},
	"reebok":     {"reebok", "classic", "club c", "question"},
	"vans":       {"vans", "old skool", "sk8-hi", "authentic", "era"},
	"converse":   {"converse", "chuck taylor", "all star", "one star"},
	"salomon":    {"salomon", "xt-6", "speedcross"},
}

var modelKeywords = map[string][]string{
	"airmax":     {"air max", "airmax", "am1", "am90", "am95", "am97"},
	"airforce":   {"air force", "af1", "air force 1"},
	"dunk":       {"dunk", "dunk low", "dunk high", "sb dunk"},
	"yeezy":      {"yeezy", "boost 350", "boost 700", "foam runner"},
	"jordan1":    {"jordan 1", "aj1", "air jordan 1"},
	"jordan4":    {"jordan 4", "aj4", "air jordan 4"},
	"ultraboost": {"ultraboost", "ultra boost"},
	"990":        {"990", "990v", "990v5", "990v6"},
}

var releaseTypeKeywords = map[string][]string{
	"retro":       {"retro", "og", "original", "vintage"},
	"collab":      {"collab", "collaboration", "x ", " x ", "partner"},
	"limited":     {"limited", "exclusive", "rare", "special edition"},
	"womens":      {"women", "wmns", "female"},
	"kids":        {"kids", "gs", "gradeschool", "youth"},
	"lifestyle":   {"lifestyle", "casual", "street"},
	"performance": {"performance", "running", "basketball", "training"},
}

// Цвета: термин (англ. или рус.) -> каноническое английское имя.
var colorTerms = map[string]string{
	"black":  "black",
	"white":  "white",
	"red":    "red",
	"blue":   "blue",
	"green":  "green",
	"yellow": "yellow",
	"purple": "purple",
	"pink":   "pink",
	"orange": "orange",
	"grey":   "grey",
	"gray":   "grey",
	"brown":  "brown",
	"gold":   "gold",
	"silver": "silver",
	"navy":   "navy",
	"teal":   "teal",
	"cream":  "cream",
	"beige":  "beige",

	"черный":      "black",
	"черн":        "black",
	"белый":       "white",
	"бел":         "white",
	"красный":     "red",
	"красн":       "red",
	"синий":       "blue",
	"син":         "blue",
	"зеленый":     "green",
	"зелен":       "green",
	"желтый":      "yellow",
	"желт":        "yellow",
	"фиолетовый":  "purple",
	"розовый":     "pink",
	"роз":         "pink",
	"оранжевый":   "orange",
	"серый":       "grey",
	"сер":         "grey",
	"коричневый":  "brown",
	"золотой":     "gold",
	"серебряный":  "silver",
}

// Хэштеги по рубрикам и брендам.
var hashtagTable = map[string]map[string]string{
	"sneakers": {
		"nike":       "#nike #sneakers #кроссовки #найк #никебутик",
		"adidas":     "#adidas #sneakers #кроссовки #адидас #threestripes",
		"jordan":     "#jordan #airjordan #кроссовки #джордан #jumpman",
		"newbalance": "#newbalance #nb #кроссовки #ньюбаланс #madeinusa",
		"puma":       "#puma #sneakers #кроссовки #пума #pumafamily",
		"yeezy":      "#yeezy #adidas #кроссовки #изи #kanye",
		"asics":      "#asics #sneakers #кроссовки #асикс #geltechnology",
		"reebok":     "#reebok #sneakers #кроссовки #рибок #classic",
		"vans":       "#vans #sneakers #кроссовки #ванс #offthewall",
		"converse":   "#converse #sneakers #кроссовки #конверс #allstar",
		"default":    "#sneakers #кроссовки #streetwear #обувь #sneakerhead",
	},
	"fashion": {
		"supreme":  "#supreme #streetwear #fashion #суприм #hypebeast",
		"offwhite": "#offwhite #fashion #streetwear #virgilabloh",
		"stussy":   "#stussy #streetwear #fashion #stussytribe",
		"palace":   "#palace #streetwear #fashion #palaceskateboards",
		"default":  "#fashion #мода #streetwear #style #стиль #outfit",
	},
}

// Русские подписи для показа тегов администратору.
var releaseTypeTitles = map[string]string{
	"retro":       "Ретро",
	"collab":      "Коллаборация",
	"limited":     "Лимитированная",
	"womens":      "Женская",
	"kids":        "Детская",
	"lifestyle":   "Lifestyle",
	"performance": "Спортивная",
}

var colorTitles = map[string]string{
	"black":  "Черный",
	"white":  "Белый",
	"red":    "Красный",
	"blue":   "Синий",
	"green":  "Зеленый",
	"yellow": "Желтый",
	"purple": "Фиолетовый",
	"pink":   "Розовый",
	"orange": "Оранжевый",
	"grey":   "Серый",
	"brown":  "Коричневый",
	"gold":   "Золотой",
	"silver": "Серебряный",
	"navy":   "Темно-синий",
	"cream":  "Кремовый",
	"beige":  "Бежевый",
}
