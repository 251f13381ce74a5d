// Package campaign sequences extraction and completions into campaign briefs
// and follow-up email templates, in buffered and streaming form.
package campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/campaign-brief/internal/apperr"
	"github.com/jmylchreest/campaign-brief/internal/extraction"
	"github.com/jmylchreest/campaign-brief/internal/llm"
	"github.com/jmylchreest/campaign-brief/internal/logging"
	"github.com/jmylchreest/campaign-brief/internal/models"
	"github.com/jmylchreest/campaign-brief/internal/streamparse"
)

// Pipeline modes, recorded on the request context for log filtering.
const (
	ModeBuffered  = "buffered"
	ModeStreaming = "streaming"
)

// Stage is a step of the request pipeline. Stages only move forward.
type Stage string

const (
	StageInit              Stage = "init"
	StageScrape            Stage = "scrape"
	StageSuppliedCampaign  Stage = "supplied_campaign"
	StageSummarizing       Stage = "summarizing"
	StageGenerating        Stage = "generating"
	StageMessageGenerating Stage = "message_generating"
	StageDone              Stage = "done"
)

// Completer issues intent-driven completions. *llm.Client implements it.
type Completer interface {
	Complete(ctx context.Context, intent llm.Intent, input, language string) (*llm.Completion, error)
	CompleteStream(ctx context.Context, intent llm.Intent, input, language string, onChunk func(string) error) (string, error)
}

// Orchestrator runs the campaign pipeline. It keeps no per-request state, so a
// single instance serves all requests.
type Orchestrator struct {
	extractor extraction.Extractor
	llm       Completer
	logger    *slog.Logger
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(extractor extraction.Extractor, completer Completer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		extractor: extractor,
		llm:       completer,
		logger:    logger,
	}
}

// StatusLine is the first line written by Stream. An empty url means the
// campaign was supplied by the caller.
func StatusLine(url string) string {
	if url == "" {
		return "Request Received! Generating Email from the Supplied Campaign\n\n"
	}
	return "Request Received! Generating Affiliate Campaign for " + url + "\n\n"
}

// Buffered runs the whole pipeline and returns the merged result.
func (o *Orchestrator) Buffered(ctx context.Context, req *models.CampaignRequest) (*models.CampaignResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ctx = logging.WithMode(ctx, ModeBuffered)
	logger := logging.FromContext(ctx, o.logger)
	start := time.Now()
	lang := req.LanguageName()

	logger.Info("request received", "url", req.TargetURL(), "mail_type", mailType(req), "lang", req.Lang)
	o.stage(ctx, StageInit)

	result := &models.CampaignResult{}
	var messageInput any

	if req.ShouldGenerateCampaign() {
		summary, err := o.summarize(ctx, req.TargetURL(), lang)
		if err != nil {
			return nil, err
		}

		o.stage(ctx, StageGenerating)
		var campaign, platform *llm.Completion
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			campaign, err = o.llm.Complete(gctx, llm.IntentBufferedCampaign, summary, lang)
			return err
		})
		g.Go(func() error {
			var err error
			platform, err = o.llm.Complete(gctx, llm.IntentPlatform, summary, lang)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		artifact := models.CampaignFromObject(campaign.Object)
		for k, v := range platform.Object {
			artifact.Platform[k] = v
		}
		result.Campaign = artifact
		messageInput = artifact.Map()
	} else {
		o.stage(ctx, StageSuppliedCampaign)
		messageInput = *req.CustomerCampaign
	}

	if req.ShouldGenerateMessage() {
		message, err := o.message(ctx, *req.MailType, messageInput, lang)
		if err != nil {
			return nil, err
		}
		result.Message = message
	}

	o.stage(ctx, StageDone)
	logger.Info("buffered request complete", "url", req.TargetURL(), "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// Stream runs the pipeline, forwarding campaign text to w as it is generated and
// writing the parsed campaign and optional message as JSON blocks afterwards.
// The status line is written before any work starts. A failure after that is
// written to w as an error block and also returned.
func (o *Orchestrator) Stream(ctx context.Context, req *models.CampaignRequest, w io.Writer) error {
	ctx = logging.WithMode(ctx, ModeStreaming)
	logger := logging.FromContext(ctx, o.logger)
	start := time.Now()

	if _, err := io.WriteString(w, StatusLine(req.TargetURL())); err != nil {
		return err
	}
	o.stage(ctx, StageInit)

	if err := o.stream(ctx, req, w); err != nil {
		logger.Error("streaming request failed",
			"url", req.TargetURL(),
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		if ctx.Err() == nil {
			_ = writeErrorBlock(ctx, w, err)
		}
		return err
	}

	logger.Info("streaming request complete", "url", req.TargetURL(), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (o *Orchestrator) stream(ctx context.Context, req *models.CampaignRequest, w io.Writer) error {
	if err := req.Validate(); err != nil {
		return err
	}
	lang := req.LanguageName()

	if !req.ShouldGenerateCampaign() {
		o.stage(ctx, StageSuppliedCampaign)
		message, err := o.message(ctx, *req.MailType, *req.CustomerCampaign, lang)
		if err != nil {
			return err
		}
		body, err := json.Marshal(map[string]any{"message": message.Map()})
		if err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
		o.stage(ctx, StageDone)
		return writeString(w, "\n"+string(body)+"\n\n")
	}

	summary, err := o.summarize(ctx, req.TargetURL(), lang)
	if err != nil {
		return err
	}

	o.stage(ctx, StageGenerating)
	var (
		platform *llm.Completion
		text     string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		platform, err = o.llm.Complete(gctx, llm.IntentPlatform, summary, lang)
		return err
	})
	g.Go(func() error {
		var err error
		text, err = o.llm.CompleteStream(gctx, llm.IntentCampaign, summary, lang, func(chunk string) error {
			return writeString(w, chunk)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	sections := streamparse.Parse(text)
	artifact := &models.CampaignArtifact{
		Title:        sections.Title,
		AboutCompany: sections.AboutCompany,
		Description:  sections.Description,
		Platform:     platform.Object,
	}
	body, err := json.MarshalIndent(artifact.Map(), "", "   ")
	if err != nil {
		return fmt.Errorf("failed to encode campaign: %w", err)
	}
	if err := writeString(w, "\n\n"+string(body)+"\n\n"); err != nil {
		return err
	}

	if req.ShouldGenerateMessage() {
		message, err := o.message(ctx, *req.MailType, text, lang)
		if err != nil {
			return err
		}
		body, err := json.MarshalIndent(map[string]any{"message": message.Map()}, "", "   ")
		if err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
		if err := writeString(w, string(body)); err != nil {
			return err
		}
	}

	o.stage(ctx, StageDone)
	return nil
}

// summarize extracts the page text and condenses it.
func (o *Orchestrator) summarize(ctx context.Context, url, lang string) (string, error) {
	o.stage(ctx, StageScrape)
	extracted, err := o.extractor.Extract(ctx, models.ExtractRequest{URL: url})
	if err != nil {
		return "", err
	}

	o.stage(ctx, StageSummarizing)
	summary, err := o.llm.Complete(ctx, llm.IntentSummary, extracted.ExtractedText, lang)
	if err != nil {
		return "", err
	}
	return summary.Text, nil
}

// message generates the email template. The campaign is sent to the model as JSON,
// whether it is a generated object or caller-supplied text.
func (o *Orchestrator) message(ctx context.Context, mail models.MailType, campaign any, lang string) (*models.MessageArtifact, error) {
	o.stage(ctx, StageMessageGenerating)
	intent, err := llm.IntentForMailType(mail)
	if err != nil {
		return nil, apperr.NewValidation("mailType", err.Error())
	}
	input, err := json.Marshal(campaign)
	if err != nil {
		return nil, fmt.Errorf("failed to encode campaign: %w", err)
	}
	completion, err := o.llm.Complete(ctx, intent, string(input), lang)
	if err != nil {
		return nil, err
	}
	return models.NewMessageArtifact(mail, completion.Object), nil
}

func (o *Orchestrator) stage(ctx context.Context, s Stage) {
	logging.FromContext(ctx, o.logger).Debug("pipeline stage", "stage", string(s))
}

// ErrorResponse converts err into the payload returned to callers.
func ErrorResponse(ctx context.Context, err error) *models.ErrorResponse {
	return models.NewErrorResponse(apperr.Code(err), err.Error(), apperr.HTTPStatus(err), logging.GetRequestID(ctx))
}

func writeErrorBlock(ctx context.Context, w io.Writer, err error) error {
	body, mErr := json.MarshalIndent(ErrorResponse(ctx, err), "", "   ")
	if mErr != nil {
		return mErr
	}
	return writeString(w, "\n\n"+string(body)+"\n\n")
}

func writeString(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}

func mailType(req *models.CampaignRequest) string {
	if req.MailType == nil {
		return ""
	}
	return string(*req.MailType)
}
