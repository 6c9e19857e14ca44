package stream

import (
	"context"
	"time"

	"github.com/syncoria/assistant-go/internal/chat"
	"github.com/syncoria/assistant-go/internal/gateway"
	"github.com/syncoria/assistant-go/internal/logger"
	"github.com/syncoria/assistant-go/internal/session"
	"github.com/syncoria/assistant-go/internal/table"
)

// NoAnalysis fills in for a result that arrived without analysis text.
const NoAnalysis = "No analysis provided."

// Submit runs one query submission end to end: dispatch on the streaming or
// blocking variant, reconcile, then finalize into the transcript and store.
// The transcript must already hold the user message and pending placeholder.
//
// A gateway or transport error is returned for user-facing display, but the
// placeholder is still resolved into a visible error message so the user's
// submitted query is never silently dropped.
func Submit(ctx context.Context, gw *gateway.Client, store *session.Store, sessionID, query string, streaming bool, progress func(Snapshot)) error {
	var res gateway.AssistantResult
	var submitErr error

	if streaming {
		body, err := gw.QueryStream(ctx, query, sessionID)
		if err != nil {
			submitErr = err
			res = gateway.AssistantResult{Analysis: FallbackAnalysis}
		} else {
			rec := NewReconciler(progress)
			if err := rec.Run(ctx, body); err != nil {
				logger.L.Error("stream aborted", "session_id", sessionID, "error", err)
				submitErr = err
			}
			body.Close()
			res = rec.Result()
		}
	} else {
		r, err := gw.Query(ctx, query, sessionID)
		if err != nil {
			submitErr = err
			res = gateway.AssistantResult{Analysis: FallbackAnalysis}
		} else {
			res = r
		}
	}

	finalize(ctx, res, store, sessionID, query)
	return submitErr
}

// finalize runs exactly once per submission, after the stream has ended (or
// the blocking call returned): best-effort CSV fetch, defaults, placeholder
// resolution, first-exchange rename.
func finalize(ctx context.Context, res gateway.AssistantResult, store *session.Store, sessionID, query string) {
	var df *table.Table
	if res.CSVURL != "" {
		tbl, err := table.Fetch(ctx, res.CSVURL)
		if err != nil {
			logger.L.Warn("could not display data table", "csv_url", res.CSVURL, "error", err)
		} else {
			df = tbl
		}
	}

	analysis := res.Analysis
	if analysis == "" {
		analysis = NoAnalysis
	}
	ts := chat.ParseTimestamp(res.Timestamp)
	if ts.IsZero() {
		ts = time.Now()
	}

	msg := chat.AssistantMessage{
		Analysis:            analysis,
		Dataframe:           df,
		ChartGenerated:      res.ChartGenerated,
		ChartURL:            res.ChartS3URL,
		CSVURL:              res.CSVURL,
		XLSXURL:             res.XLSXURL,
		ChartDecisionReason: res.ChartDecisionReason,
		Timestamp:           ts,
	}

	if err := store.Transcript().ResolvePending(msg); err != nil {
		// Protocol violation, already logged; don't count the exchange.
		return
	}
	store.RenameOnFirstExchange(sessionID, query)
}
