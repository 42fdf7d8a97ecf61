// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package matching

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdiddy/award-matcher/internal/openalex"
	"github.com/pdiddy/award-matcher/internal/textnorm"
	"github.com/pdiddy/award-matcher/pkg/types"
)

const logTitleLen = 100

// TitleEngine matches a record to a work by its title. It always returns
// exactly one record.
type TitleEngine struct {
	search  TitleSearcher
	norm    *textnorm.Normalizer
	funders []string

	validateAuthors bool
	validateYear    bool
	yearFilter      bool
}

// Mode implements Engine.
func (e *TitleEngine) Mode() types.MatchingMode { return types.ModeTitle }

// Process implements Engine.
func (e *TitleEngine) Process(ctx context.Context, rec types.Record) ([]types.Record, error) {
	out := rec.Clone()
	title := rec.String(types.FieldTitle)
	if title == "" {
		zap.L().Warn("record has no title", zap.String("award_id", rec.String(types.FieldAwardID)))
		out[types.FieldMetadataSource] = sourceNoTitle
		out[types.FieldMatchStatus] = string(types.StatusFailed)
		return []types.Record{out}, nil
	}

	_, date, format := textnorm.ExtractDateFromTitle(title)
	out["cleaned_title"] = e.norm.CleanTitleForSearch(title, false)
	out["extracted_date"] = date
	out["date_format"] = string(format)

	year := 0
	if e.yearFilter {
		year = rec.Year(types.FieldYear)
	}
	zap.L().Info("searching by title", zap.String("title", clip(title, logTitleLen)))
	m, err := e.search.SearchForWork(ctx, title, year)
	if err != nil {
		return nil, err
	}
	if m == nil {
		zap.L().Info("no title match", zap.String("title", clip(title, logTitleLen)))
		out[types.FieldMetadataSource] = sourceNotFound
		out[types.FieldMatchStatus] = string(types.StatusNoMatch)
		out[types.FieldMatchRatio] = 0
		return []types.Record{out}, nil
	}

	out[types.FieldMatchStatus] = string(types.StatusMatched)
	out[types.FieldMatchRatio] = m.Ratio
	out["search_method"] = m.Method
	out["matched_title"] = m.Work.TitleText()

	meta := openalex.ExtractMetadata(m.Work, e.funders, rec.String(types.FieldAwardID))
	out.Merge(meta)

	if e.validateAuthors {
		if input, found := rec.String(types.FieldAuthors), meta.String("work_authors"); input != "" && found != "" {
			out.Merge(MatchAuthorLastNames(input, found))
		}
	}
	if e.validateYear {
		if input := rec.Year(types.FieldYear); input > 0 && m.Work.PublicationYear > 0 {
			out.Merge(TitleYearCheck(input, m.Work.PublicationYear))
		}
	}
	return []types.Record{out}, nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
