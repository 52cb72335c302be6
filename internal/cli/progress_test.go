package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/atlas/internal/model"
)

func TestStageProgress_SingleRun(t *testing.T) {
	var buf bytes.Buffer
	p := NewStageProgress(&buf, 1, 3)
	req := model.Request{ID: "r"}

	p.StageStarted(req, model.StageUnit, 1)
	p.StageFinished(req, model.StageResult{Stage: model.StageUnit})
	assert.Equal(t, 1, p.Completed())

	p.StageStarted(req, model.StageField, 2)
	p.StageFinished(req, model.StageResult{Stage: model.StageField})
	assert.Equal(t, 2, p.Completed())
	assert.Contains(t, buf.String(), "revision 1")

	p.RunFinished(&model.Result{Request: req})
	assert.Equal(t, 3, p.Completed(), "finishing completes the bar even when a stage was skipped")
}

func TestStageProgress_Batch(t *testing.T) {
	var buf bytes.Buffer
	p := NewStageProgress(&buf, 3, 3)
	req := model.Request{ID: "r"}

	p.StageStarted(req, model.StageUnit, 1)
	p.StageFinished(req, model.StageResult{Stage: model.StageUnit})
	assert.Equal(t, 0, p.Completed(), "stages do not advance a batch bar")

	p.RunFinished(&model.Result{Request: req})
	p.RunFinished(&model.Result{Request: req})
	assert.Equal(t, 2, p.Completed())
	assert.Contains(t, buf.String(), "Classifying 3 descriptions")

	p.RunFinished(&model.Result{Request: req})
	assert.Equal(t, 3, p.Completed())
}
