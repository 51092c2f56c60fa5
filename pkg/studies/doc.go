// Package studies provides the authored case-study graphs and the decoders
// that turn study documents into [flow.Graph] values.
//
// Three studies are embedded: grain, fish and fruitveg. Each is a TOML
// document listing nodes with their fixed positions and KPIs, the directed
// edges between them with an optional connector style, and the named routes.
// The same document shape is accepted as YAML or JSON so users can supply
// their own studies:
//
//	name = "grain"
//	title = "Grain Supply Chain"
//
//	[[nodes]]
//	id = "farm"
//	label = "Farm"
//	category = "production"
//	x = 40
//	y = 200
//	kpis = [{ name = "Yield", value = "6.8 t/ha", trend = "up" }]
//
//	[[edges]]
//	from = "farm"
//	to = "logistics"
//	connector = "curve"
//
//	[[routes]]
//	id = "export"
//	nodes = ["farm", "logistics", "elevator-sea", "ship", "foreign"]
//
// A [Registry] holds the loaded studies. Files loaded from a directory
// override builtin studies of the same name, and [Registry.Reload] lets a
// file watcher swap a study in place.
package studies
