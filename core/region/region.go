package region

import "fmt"

// Region identifies an Amazon marketplace.
type Region string

const (
	Global  Region = "global"
	UK      Region = "uk"
	Germany Region = "germany"
	Japan   Region = "japan"
	India   Region = "india"
	Spain   Region = "spain"
	Italy   Region = "italy"
	France  Region = "france"
)

// Endpoints holds the remote URLs for one region.
type Endpoints struct {
	// Name is the human-readable region name.
	Name string
	// Hostname is the marketplace hostname, without scheme.
	Hostname string
	// ReaderURL is the Kindle cloud reader base URL.
	ReaderURL string
	// NotebookURL is the annotations notebook page, the root of both
	// the document-scraping strategy and the structured endpoint.
	NotebookURL string
}

var endpoints = map[Region]Endpoints{
	Global: {
		Name:        "Global (US)",
		Hostname:    "amazon.com",
		ReaderURL:   "https://read.amazon.com",
		NotebookURL: "https://read.amazon.com/notebook",
	},
	UK: {
		Name:        "United Kingdom",
		Hostname:    "amazon.co.uk",
		ReaderURL:   "https://read.amazon.co.uk",
		NotebookURL: "https://read.amazon.co.uk/notebook",
	},
	Germany: {
		Name:        "Germany/Swiss/Austria",
		Hostname:    "amazon.de",
		ReaderURL:   "https://lesen.amazon.de",
		NotebookURL: "https://lesen.amazon.de/notebook",
	},
	Japan: {
		Name:        "Japan",
		Hostname:    "amazon.co.jp",
		ReaderURL:   "https://read.amazon.co.jp",
		NotebookURL: "https://read.amazon.co.jp/notebook",
	},
	India: {
		Name:        "India",
		Hostname:    "amazon.in",
		ReaderURL:   "https://read.amazon.in",
		NotebookURL: "https://read.amazon.in/notebook",
	},
	Spain: {
		Name:        "Spain",
		Hostname:    "amazon.es",
		ReaderURL:   "https://leer.amazon.es",
		NotebookURL: "https://leer.amazon.es/notebook",
	},
	Italy: {
		Name:        "Italy",
		Hostname:    "amazon.it",
		ReaderURL:   "https://leggi.amazon.it",
		NotebookURL: "https://leggi.amazon.it/notebook",
	},
	France: {
		Name:        "France",
		Hostname:    "amazon.fr",
		ReaderURL:   "https://lire.amazon.fr",
		NotebookURL: "https://lire.amazon.fr/notebook",
	},
}

// Default is the region used when nothing is configured.
const Default = Global

// Parse validates a region identifier string.
func Parse(s string) (Region, error) {
	r := Region(s)
	if _, ok := endpoints[r]; !ok {
		return "", fmt.Errorf("unknown region %q", s)
	}
	return r, nil
}

// Lookup returns the endpoints for a region. Unknown regions fall back
// to the default marketplace.
func Lookup(r Region) Endpoints {
	if e, ok := endpoints[r]; ok {
		return e
	}
	return endpoints[Default]
}

// All returns every supported region identifier.
func All() []Region {
	return []Region{Global, UK, Germany, Japan, India, Spain, Italy, France}
}
