package presenter

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func newTestPresenter() (*Presenter, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return NewWithOptions(out, errOut, ColorNever), out, errOut
}

func TestErrorOutput(t *testing.T) {
	p, out, errOut := newTestPresenter()

	p.Error(errors.New("boom"), "loading registry")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "loading registry")
	assert.Contains(t, errOut.String(), "boom")
}

func TestErrorWithoutContext(t *testing.T) {
	p, _, errOut := newTestPresenter()

	p.Error(errors.New("boom"), "")

	assert.Contains(t, errOut.String(), "Error: boom")
}

func TestQuietSuppressesInfoButNotErrors(t *testing.T) {
	p, out, errOut := newTestPresenter()
	p.SetQuiet(true)

	p.Info("hello")
	p.Success("done")
	p.Warning("careful")
	p.Section("Skills")
	p.Separator()
	assert.Empty(t, out.String())

	p.Error(errors.New("boom"), "")
	assert.NotEmpty(t, errOut.String())
}

func TestSectionFormatting(t *testing.T) {
	p, out, _ := newTestPresenter()

	p.Section("Skills")

	assert.Contains(t, out.String(), "Skills")
	assert.Contains(t, out.String(), "------")
}
