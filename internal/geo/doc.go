// Package geo joins per-state balances to region boundary polygons for the
// choropleth map.
//
// Boundaries are a GeoJSON FeatureCollection fetched once. A feature is
// matched to a state when its name property equals Record.State exactly;
// anything else is drawn as "no data". Colours come from a diverging scale
// centred on a zero balance.
package geo
