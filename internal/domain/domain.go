package domain

// Request is the per-action input collected from a surface.
type Request struct {
	// Credential authenticates the model calls of this request only.
	Credential string
	URL        string
}

type SourceKind int

const (
	SourceGeneric SourceKind = iota
	SourceYouTubeVideo
	SourceYouTubeOther
)

func (k SourceKind) String() string {
	switch k {
	case SourceYouTubeVideo:
		return "youtube_video"
	case SourceYouTubeOther:
		return "youtube_other"
	default:
		return "generic"
	}
}

type Document struct {
	Text      string
	SourceURL string
	Title     string
	Language  string
}

type Result struct {
	Summary   string
	Kind      SourceKind
	Documents int
	Chunks    int
	Language  string
	Cached    bool
}
