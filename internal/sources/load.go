package sources

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML layout for a registry override file:
//
//	sources:
//	  - name: Waymo Blog
//	    url: https://waymo.com/blog/rss.xml
//	    priority: 10
//	    default_topics: [waymo, autonomous-driving]
type fileConfig struct {
	Sources []Source `yaml:"sources"`
}

// Load reads a feed list from a YAML file and returns the default registry
// with its source list replaced. The taxonomy, company list and query
// synonyms stay built in; they are tuning data, not deployment config.
func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources config: %w", err)
	}
	defer f.Close()

	var cfg fileConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode sources config: %w", err)
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("sources config %s lists no sources", path)
	}

	reg := Default()
	reg.Sources = cfg.Sources
	return reg, nil
}
