// Package domain models the disaster and economic datasets served by the
// dashboard's REST backend and the client-side types derived from them.
//
// # Data Source
//
// The backend joins three families of tables and returns them as JSON rows:
//
//	NaturalDisaster / DirectDamage    world-scale events (Earthquake, Tsunami,
//	                                  Volcano) with deaths, injuries and damage
//	NationalEconomicImpact            per-country yearly GDP growth, CPI and
//	                                  unemployment
//	SectoralEconomicImpact            per-country yearly sector growth
//	                                  (agriculture, industry, manufacturing,
//	                                  service)
//
// US states carry their own disaster vocabulary (Tornado, Flood, Fire, ...)
// and their own growth tables.
//
// # Row Conventions
//
// Rows are loosely typed on the wire. Column names are PascalCase
// ("CountryName", "TotalDeaths", "AvgGDP"). Numeric columns may arrive as
// JSON numbers or as strings, since aggregate columns are serialized from
// SQL DECIMAL values. A missing column and a null column are both "absent"
// and render as "N/A"; a zero is a real value.
//
// Damage is reported as a mantissa plus a scale column:
//
//	TotalDamage=12.5, TotalDamageScale=1000000  ->  "12.50 (x1000000)"
//
// # Aggregate Expressions
//
// The compare endpoint accepts indicators as pre-formatted SQL aggregate
// expressions, e.g.
//
//	AVG(ne.GDPAnnualPercentGrowth) AS AvgGDP
//
// and returns one column per alias. The global statistics endpoint accepts
// the alias alone. Both forms come from the same [Indicator] catalog entry.
package domain
