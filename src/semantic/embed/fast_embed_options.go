package embed

import "os"

// FastEmbedOptions configures the local fastembed runtime (built with
// -tags fastembed).
type FastEmbedOptions struct {
	Model     string
	CacheDir  string
	MaxLength int
}

func defaultFastEmbedOptions() *FastEmbedOptions {
	if os.Getenv("FACET_FASTEMBED_CACHE") == "" && os.Getenv("FACET_EMBED_PROVIDER") != "fastembed" {
		return nil
	}
	return &FastEmbedOptions{
		Model:     os.Getenv("FACET_EMBED_MODEL"),
		CacheDir:  os.Getenv("FACET_FASTEMBED_CACHE"),
		MaxLength: 512,
	}
}
