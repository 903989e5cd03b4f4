package matching

// DefaultSynonyms 標準名稱對應的別名
var DefaultSynonyms = map[string][]string{
	"bell pepper":     {"capsicum", "sweet pepper", "red pepper", "green pepper", "yellow pepper"},
	"scallion":        {"green onion", "spring onion"},
	"cilantro":        {"coriander", "coriander leaf", "chinese parsley"},
	"eggplant":        {"aubergine", "brinjal"},
	"zucchini":        {"courgette"},
	"shrimp":          {"prawn"},
	"chickpea":        {"garbanzo", "garbanzo bean", "chana"},
	"ground beef":     {"minced beef", "beef mince", "hamburger meat"},
	"ground turkey":   {"minced turkey", "turkey mince"},
	"pasta":           {"spaghetti", "penne", "macaroni", "fusilli", "linguine"},
	"olive oil":       {"extra virgin olive oil", "evoo"},
	"egg":             {"whole egg"},
	"tomato":          {"roma tomato", "cherry tomato", "plum tomato"},
	"tomato paste":    {"tomato puree", "tomato concentrate"},
	"potato":          {"spud", "russet potato"},
	"sweet potato":    {"yam"},
	"arugula":         {"rocket"},
	"cream":           {"heavy cream", "double cream", "whipping cream"},
	"powdered sugar":  {"icing sugar", "confectioners sugar"},
	"baking soda":     {"bicarbonate of soda", "bicarb"},
	"cornstarch":      {"cornflour", "corn starch"},
	"vegetable broth": {"vegetable stock", "veggie stock"},
	"beef broth":      {"beef stock"},
	"chicken broth":   {"chicken stock"},
	"chili flake":     {"red pepper flake", "crushed red pepper"},
	"soy sauce":       {"shoyu"},
	"parmesan":        {"parmigiano", "parmigiano reggiano"},
	"rice noodle":     {"rice stick", "pad thai noodle"},
	"mushroom":        {"button mushroom", "champignon"},
	"lettuce":         {"romaine", "iceberg"},
	"tortilla":        {"wrap", "flatbread"},
}
