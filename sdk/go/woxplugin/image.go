package woxplugin

// WoxImageType enumerates the supported image encodings a plugin may hand
// to Wox. The host never decodes these; it passes them through verbatim.
type WoxImageType string

const (
	WoxImageTypeAbsolute WoxImageType = "absolute"
	WoxImageTypeRelative WoxImageType = "relative"
	WoxImageTypeBase64   WoxImageType = "base64"
	WoxImageTypeSvg      WoxImageType = "svg"
	WoxImageTypeURL      WoxImageType = "url"
	WoxImageTypeEmoji    WoxImageType = "emoji"
	WoxImageTypeTheme    WoxImageType = "theme"
)

// WoxImage is a pass-through value type: the host inspects none of its
// fields, it only carries them across the wire.
type WoxImage struct {
	ImageType WoxImageType `json:"ImageType"`
	ImageData string       `json:"ImageData"`
}

// NewWoxImage builds an image of the given type and data.
func NewWoxImage(imageType WoxImageType, data string) WoxImage {
	return WoxImage{ImageType: imageType, ImageData: data}
}

// NewEmojiWoxImage is a convenience constructor for emoji icons, the most
// common case in sample plugins.
func NewEmojiWoxImage(emoji string) WoxImage {
	return NewWoxImage(WoxImageTypeEmoji, emoji)
}
