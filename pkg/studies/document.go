package studies

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	cterr "github.com/matzehuels/chaintwin/pkg/errors"
	"github.com/matzehuels/chaintwin/pkg/flow"
)

// Supported document formats.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Document is the authored form of a case study. The same shape is accepted
// as TOML, YAML or JSON.
type Document struct {
	Name   string          `toml:"name" yaml:"name" json:"name"`
	Title  string          `toml:"title" yaml:"title" json:"title"`
	Nodes  []NodeDocument  `toml:"nodes" yaml:"nodes" json:"nodes"`
	Edges  []EdgeDocument  `toml:"edges" yaml:"edges" json:"edges"`
	Routes []RouteDocument `toml:"routes" yaml:"routes" json:"routes"`
}

// NodeDocument is the authored form of a stage.
type NodeDocument struct {
	ID          string           `toml:"id" yaml:"id" json:"id"`
	Label       string           `toml:"label" yaml:"label" json:"label"`
	Category    string           `toml:"category" yaml:"category" json:"category"`
	Description string           `toml:"description" yaml:"description" json:"description"`
	X           float64          `toml:"x" yaml:"x" json:"x"`
	Y           float64          `toml:"y" yaml:"y" json:"y"`
	KPIs        []KPIDocument    `toml:"kpis" yaml:"kpis" json:"kpis"`
	Metrics     *MetricsDocument `toml:"metrics" yaml:"metrics" json:"metrics,omitempty"`
}

// KPIDocument is the authored form of an indicator.
type KPIDocument struct {
	Name  string `toml:"name" yaml:"name" json:"name"`
	Value string `toml:"value" yaml:"value" json:"value"`
	Trend string `toml:"trend" yaml:"trend" json:"trend"`
}

// MetricsDocument is the authored form of the optional metrics block.
type MetricsDocument struct {
	Throughput string `toml:"throughput" yaml:"throughput" json:"throughput"`
	Efficiency string `toml:"efficiency" yaml:"efficiency" json:"efficiency"`
	Quality    string `toml:"quality" yaml:"quality" json:"quality"`
	Cost       string `toml:"cost" yaml:"cost" json:"cost"`
}

// EdgeDocument is the authored form of a connection.
type EdgeDocument struct {
	From      string `toml:"from" yaml:"from" json:"from"`
	To        string `toml:"to" yaml:"to" json:"to"`
	Connector string `toml:"connector" yaml:"connector" json:"connector,omitempty"`
}

// RouteDocument is the authored form of a route.
type RouteDocument struct {
	ID    string   `toml:"id" yaml:"id" json:"id"`
	Label string   `toml:"label" yaml:"label" json:"label"`
	Nodes []string `toml:"nodes" yaml:"nodes" json:"nodes"`
}

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", cterr.New(cterr.ErrCodeInvalidFormat, "unsupported study file %q (want .toml, .yaml or .json)", filepath.Base(path))
}

// Decode parses data in the given format.
func Decode(data []byte, format string) (Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatTOML:
		_, err = toml.NewDecoder(bytes.NewReader(data)).Decode(&doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	default:
		return Document{}, cterr.New(cterr.ErrCodeInvalidFormat, "unknown study format %q", format)
	}
	if err != nil {
		return Document{}, cterr.Wrap(cterr.ErrCodeInvalidStudy, err, "decode %s study", format)
	}
	return doc, nil
}

// Encode writes d in the given format.
func Encode(d Document, format string) ([]byte, error) {
	switch format {
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(d); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatYAML:
		return yaml.Marshal(d)
	case FormatJSON:
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	return nil, cterr.New(cterr.ErrCodeInvalidFormat, "unknown study format %q", format)
}

// Graph validates the document and builds the immutable graph.
func (d Document) Graph(opts ...flow.BuildOption) (*flow.Graph, error) {
	if err := cterr.ValidateStudyName(d.Name); err != nil {
		return nil, err
	}

	b := flow.NewBuilder(d.Name, d.Title)
	for _, nd := range d.Nodes {
		n := flow.Node{
			ID:          flow.NodeID(nd.ID),
			Label:       nd.Label,
			Category:    flow.Category(strings.ToLower(nd.Category)),
			Description: strings.TrimSpace(nd.Description),
			Position:    flow.Position{X: nd.X, Y: nd.Y},
		}
		for _, kd := range nd.KPIs {
			trend, err := flow.ParseTrend(kd.Trend)
			if err != nil {
				return nil, cterr.Wrap(cterr.ErrCodeInvalidStudy, err, "%s: node %q kpi %q", d.Name, nd.ID, kd.Name)
			}
			n.KPIs = append(n.KPIs, flow.KPI{Name: kd.Name, Value: kd.Value, Trend: trend})
		}
		if nd.Metrics != nil {
			n.Metrics = &flow.Metrics{
				Throughput: nd.Metrics.Throughput,
				Efficiency: nd.Metrics.Efficiency,
				Quality:    nd.Metrics.Quality,
				Cost:       nd.Metrics.Cost,
			}
		}
		b.AddNode(n)
	}
	for _, ed := range d.Edges {
		b.AddEdge(flow.Edge{
			From:      flow.NodeID(ed.From),
			To:        flow.NodeID(ed.To),
			Connector: flow.ConnectorStyle(strings.ToLower(ed.Connector)),
		})
	}
	for _, rd := range d.Routes {
		r := flow.Route{ID: flow.RouteID(rd.ID), Label: rd.Label}
		for _, id := range rd.Nodes {
			r.Nodes = append(r.Nodes, flow.NodeID(id))
		}
		b.AddRoute(r)
	}

	g, err := b.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", d.Name, err)
	}
	return g, nil
}

// FromGraph converts a graph back to its document form, e.g. for the JSON
// API or for converting between formats.
func FromGraph(g *flow.Graph) Document {
	d := Document{Name: g.Name(), Title: g.Title()}
	for _, n := range g.Nodes() {
		nd := NodeDocument{
			ID:          string(n.ID),
			Label:       n.Label,
			Category:    string(n.Category),
			Description: n.Description,
			X:           n.Position.X,
			Y:           n.Position.Y,
		}
		for _, k := range n.KPIs {
			nd.KPIs = append(nd.KPIs, KPIDocument{Name: k.Name, Value: k.Value, Trend: string(k.Trend)})
		}
		if n.Metrics != nil {
			nd.Metrics = &MetricsDocument{
				Throughput: n.Metrics.Throughput,
				Efficiency: n.Metrics.Efficiency,
				Quality:    n.Metrics.Quality,
				Cost:       n.Metrics.Cost,
			}
		}
		d.Nodes = append(d.Nodes, nd)
	}
	for _, e := range g.Edges() {
		d.Edges = append(d.Edges, EdgeDocument{From: string(e.From), To: string(e.To), Connector: string(e.Connector)})
	}
	for _, r := range g.Routes() {
		rd := RouteDocument{ID: string(r.ID), Label: r.Label}
		for _, id := range r.Nodes {
			rd.Nodes = append(rd.Nodes, string(id))
		}
		d.Routes = append(d.Routes, rd)
	}
	return d
}
