package timeline

import "strings"

const defaultScreenshotDir = "/media/screenshots/"

// ImageRef is the classified form of a screenshot image path. The set of
// implementations is closed: AbsoluteURL, ServerRooted, RelativeMedia, BareFilename.
type ImageRef interface {
	imageRef()
}

type (
	AbsoluteURL   struct{ URL string }
	ServerRooted  struct{ Path string }
	RelativeMedia struct{ Path string }
	BareFilename  struct{ Name string }
)

func (AbsoluteURL) imageRef()   {}
func (ServerRooted) imageRef()  {}
func (RelativeMedia) imageRef() {}
func (BareFilename) imageRef()  {}

// ClassifyImage applies the precedence http > /media/ > media/ > bare filename.
func ClassifyImage(path string) ImageRef {
	switch {
	case strings.HasPrefix(path, "http"):
		return AbsoluteURL{URL: path}
	case strings.HasPrefix(path, "/media/"):
		return ServerRooted{Path: path}
	case strings.HasPrefix(path, "media/"):
		return RelativeMedia{Path: path}
	default:
		return BareFilename{Name: path}
	}
}

// ResolveImageURL turns an image path into a fetchable URL against base.
func ResolveImageURL(base, path string) string {
	base = strings.TrimRight(base, "/")
	switch ref := ClassifyImage(path).(type) {
	case AbsoluteURL:
		return ref.URL
	case ServerRooted:
		return base + ref.Path
	case RelativeMedia:
		return base + "/" + ref.Path
	case BareFilename:
		return base + defaultScreenshotDir + ref.Name
	default:
		panic("timeline: unhandled image ref")
	}
}
