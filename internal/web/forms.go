package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/sweeper/internal/core"
)

// multipartOverhead is allowed on top of the file size for the other form
// fields and part headers.
const multipartOverhead = 1 << 20

// maxPreviewRows bounds the rows form field.
const maxPreviewRows = 1000

// sweepForm holds the validated non-file fields of an upload.
type sweepForm struct {
	Target string `validate:"omitempty,sweepformat"`
	Rows   int    `validate:"gte=0,lte=1000"`
}

// upload is a parsed sweep request.
type upload struct {
	FileName string
	Data     []byte
	Target   core.Format
	Rows     int
}

// newValidator returns a validator that knows the "sweepformat" rule: the
// value must name a registered format or suffix.
func newValidator(reg *core.Registry) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("sweepformat", func(fl validator.FieldLevel) bool {
		_, ok := reg.Lookup(fl.Field().String())
		return ok
	})
	return v
}

// readUpload parses the multipart body: a "file" part plus optional
// "target" and "rows" fields.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, fmt.Errorf("%w: over %d bytes", errFileTooLarge, maxSize)
		}
		return nil, fmt.Errorf("%w: %v", errInvalidForm, err)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}
	defer file.Close()

	if header.Size > maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", errFileTooLarge, header.Filename, header.Size, maxSize)
	}

	form, err := s.parseForm(r)
	if err != nil {
		return nil, err
	}

	data, err := readAll(file, maxSize)
	if err != nil {
		return nil, err
	}

	return &upload{
		FileName: header.Filename,
		Data:     data,
		Target:   core.Format(form.Target),
		Rows:     form.Rows,
	}, nil
}

// parseForm reads and validates the target and rows fields. A blank target
// falls back to the configured default.
func (s *Server) parseForm(r *http.Request) (sweepForm, error) {
	form := sweepForm{
		Target: strings.TrimSpace(r.FormValue("target")),
	}
	if form.Target == "" {
		form.Target = s.cfg.Upload.DefaultTarget
	}

	if raw := strings.TrimSpace(r.FormValue("rows")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return form, fmt.Errorf("%w: rows must be a number", errInvalidForm)
		}
		form.Rows = n
	}

	if err := s.validate.Struct(form); err != nil {
		return form, fmt.Errorf("%w: %s", errInvalidForm, describeValidation(err))
	}
	return form, nil
}

// describeValidation turns validator errors into a short field list.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		parts[i] = fmt.Sprintf("%s fails %q (got %v)", strings.ToLower(fe.Field()), fe.Tag(), fe.Value())
	}
	return strings.Join(parts, "; ")
}

func readAll(f multipart.File, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", errFileTooLarge, limit)
	}
	return data, nil
}

// previewRows resolves the requested preview size.
func (s *Server) previewRows(requested int) int {
	if requested > 0 {
		return min(requested, maxPreviewRows)
	}
	return s.cfg.Upload.PreviewRows
}
