package api

import (
	"context"

	"github.com/joeblew999/geodash/internal/aggregate"
	"github.com/joeblew999/geodash/internal/service"
)

type PieInput struct {
	SelectionParams
	Body service.PieRequest
}

type GroupedInput struct {
	SelectionParams
	Body service.GroupedRequest
}

type LineInput struct {
	SelectionParams
	Body service.LineRequest
}

type SunburstInput struct {
	SelectionParams
	Body service.SunburstRequest
}

func (h *APIHandler) PieChart(ctx context.Context, input *PieInput) (*struct{ Body []aggregate.Slice }, error) {
	req := input.Body
	req.UseSelection = req.UseSelection || input.enabled()

	slices, err := h.svc.Charts.Pie(input.withSession(ctx), req)
	if err != nil {
		return nil, h.fail("pie chart", err)
	}
	return &struct{ Body []aggregate.Slice }{Body: slices}, nil
}

func (h *APIHandler) GroupedChart(ctx context.Context, input *GroupedInput) (*struct{ Body aggregate.Matrix }, error) {
	req := input.Body
	req.UseSelection = req.UseSelection || input.enabled()

	m, err := h.svc.Charts.Grouped(input.withSession(ctx), req)
	if err != nil {
		return nil, h.fail("grouped bar chart", err)
	}
	return &struct{ Body aggregate.Matrix }{Body: m}, nil
}

func (h *APIHandler) LineChart(ctx context.Context, input *LineInput) (*struct{ Body aggregate.LineSeries }, error) {
	req := input.Body
	req.UseSelection = req.UseSelection || input.enabled()

	lines, err := h.svc.Charts.Line(input.withSession(ctx), req)
	if err != nil {
		return nil, h.fail("line chart", err)
	}
	return &struct{ Body aggregate.LineSeries }{Body: lines}, nil
}

func (h *APIHandler) SunburstChart(ctx context.Context, input *SunburstInput) (*struct{ Body []aggregate.Node }, error) {
	req := input.Body
	req.UseSelection = req.UseSelection || input.enabled()

	nodes, err := h.svc.Charts.Sunburst(input.withSession(ctx), req)
	if err != nil {
		return nil, h.fail("sunburst chart", err)
	}
	return &struct{ Body []aggregate.Node }{Body: nodes}, nil
}
