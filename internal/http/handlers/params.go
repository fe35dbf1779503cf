package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Sparkonix11/Knowtopia/internal/http/response"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/pointers"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/services"
)

const maxMultipartMemory = 32 << 20

// pathID parses a uuid path parameter. Malformed ids cannot name a row, so they get notFound.
func pathID(c *gin.Context, name, notFound string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		response.RespondAPIError(c, apierr.NotFound(notFound))
		return uuid.Nil, false
	}
	return id, true
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// uploads collects the file parts of a multipart request and closes them when done.
type uploads struct {
	files []multipart.File
}

func (u *uploads) Close() {
	for _, f := range u.files {
		_ = f.Close()
	}
}

// get returns the named file part, or nil when the request has none.
// A part sent with an empty filename is reported as an upload with no name.
func (u *uploads) get(c *gin.Context, field string) (*services.FileUpload, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		if form := c.Request.MultipartForm; form != nil {
			if _, sent := form.Value[field]; sent {
				return &services.FileUpload{Reader: strings.NewReader("")}, nil
			}
		}
		return nil, nil
	}
	if err != nil {
		return nil, apierr.BadRequest("Invalid multipart form")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apierr.Internal(err)
	}
	u.files = append(u.files, f)
	return &services.FileUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Reader:      f,
	}, nil
}

// looseString accepts a JSON string or number, so duration and option fields bind either way.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = looseString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = looseString(num.String())
	return nil
}

func (s *looseString) ptr() *string {
	if s == nil {
		return nil
	}
	return pointers.Ptr(string(*s))
}

func (s *looseString) value() string {
	return string(pointers.Deref(s))
}

// answerKey writes a question id in canonical form so upper-case, braced or urn
// spellings match. Keys that are not uuids are kept and match no question.
func answerKey(raw string) string {
	raw = strings.TrimSpace(raw)
	if id, err := uuid.Parse(raw); err == nil {
		return id.String()
	}
	return raw
}
