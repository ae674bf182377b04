package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SourceType — способ разбора источника.
type SourceType string

const (
	SourceJSON SourceType = "json"
	SourceRSS  SourceType = "rss"
)

// Source описывает один источник новостей.
type Source struct {
	Key      string     `yaml:"key"`
	Name     string     `yaml:"name"`
	Type     SourceType `yaml:"type"`
	API      string     `yaml:"api"`
	Category string     `yaml:"category"`
}

// SourcesRoot — корень файла со списком источников.
type SourcesRoot struct {
	Sources []Source `yaml:"sources"`
}

// DefaultSources возвращает встроенный список источников. Используется,
// когда отдельный файл конфигурации не задан.
func DefaultSources() []Source {
	return []Source{
		{
			Key:      "sneakernews",
			Name:     "SneakerNews",
			Type:     SourceJSON,
			API:      "https://sneakernews.com/wp-json/wp/v2/posts?per_page=10&_embed",
			Category: "sneakers",
		},
		{
			Key:      "hypebeast",
			Name:     "Hypebeast Footwear",
			Type:     SourceRSS,
			API:      "https://hypebeast.com/footwear/feed",
			Category: "sneakers",
		},
		{
			Key:      "highsnobiety",
			Name:     "Highsnobiety Sneakers",
			Type:     SourceRSS,
			API:      "https://www.highsnobiety.com/tag/sneakers/feed/",
			Category: "sneakers",
		},
		{
			Key:      "hypebeast_fashion",
			Name:     "Hypebeast Fashion",
			Type:     SourceRSS,
			API:      "https://hypebeast.com/fashion/feed",
			Category: "fashion",
		},
		{
			Key:      "highsnobiety_fashion",
			Name:     "Highsnobiety Fashion",
			Type:     SourceRSS,
			API:      "https://www.highsnobiety.com/tag/fashion/feed/",
			Category: "fashion",
		},
	}
}

// LoadSources читает список источников из YAML-файла.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources config: %w", err)
	}

	var root SourcesRoot
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("unmarshal sources config: %w", err)
	}
	if len(root.Sources) == 0 {
		return nil, fmt.Errorf("sources config %s contains no sources", path)
	}

	for i, src := range root.Sources {
		if src.Key == "" || src.API == "" {
			return nil, fmt.Errorf("source #%d: key and api are required", i)
		}
		if src.Type != SourceJSON && src.Type != SourceRSS {
			return nil, fmt.Errorf("source %s: unknown type %q", src.Key, src.Type)
		}
	}
	return root.Sources, nil
}
