package account

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
)

// MaxImageBytes caps uploaded profile pictures at 300 KB.
const MaxImageBytes = 300 * 1024

// allowedImageTypes are the accepted sniffed content types and their
// canonical file extensions.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// ValidatePicture checks an uploaded picture: size first, then that
// the bytes sniff as an image at all, then that the format is one of
// JPEG/PNG/GIF, and finally that the data actually decodes. Failures
// land on the profile_picture field.
func ValidatePicture(data []byte, errs FieldErrors) {
	if len(data) > MaxImageBytes {
		errs.Add("profile_picture", Message(ImageTooLarge))
		return
	}
	sniffed := http.DetectContentType(data)
	if !isImageType(sniffed) {
		errs.Add("profile_picture", Message(NotAnImage))
		return
	}
	if _, ok := allowedImageTypes[sniffed]; !ok {
		errs.Add("profile_picture", Message(BadImageFormat))
		return
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		errs.Add("profile_picture", Message(NotAnImage))
	}
}

// PictureContentType returns the sniffed content type of the picture
// bytes. Only meaningful after ValidatePicture passed.
func PictureContentType(data []byte) string {
	return http.DetectContentType(data)
}

// PictureExt returns the file extension for validated picture bytes.
func PictureExt(data []byte) string {
	return allowedImageTypes[http.DetectContentType(data)]
}

func isImageType(contentType string) bool {
	return len(contentType) > 6 && contentType[:6] == "image/"
}
