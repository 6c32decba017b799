package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"proposalgen/logx"
	"proposalgen/services"
)

// QuoteResponse is the price preview returned by HandlePricingQuote.
type QuoteResponse struct {
	services.PriceResult
	Pages     int               `json:"pages"`
	Folders   int               `json:"folders"`
	Formatted map[string]string `json:"formatted"`
}

func queryInt(q url.Values, key string) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a whole number", services.ErrInvalidInput, key)
	}
	return n, nil
}

// HandlePricingQuote returns a handler that prices pages/folders over a
// duration given either as start_date/end_date or as duration months.
func HandlePricingQuote(calc *services.PriceCalculator) func(*core.RequestEvent) error {
	log := logx.Component("pricing_quote")
	return func(e *core.RequestEvent) error {
		q := e.Request.URL.Query()

		pages, err := queryInt(q, "pages")
		if err != nil {
			return ServiceErrorJSON(e, err)
		}
		folders, err := queryInt(q, "folders")
		if err != nil {
			return ServiceErrorJSON(e, err)
		}
		explicit, err := queryInt(q, "duration")
		if err != nil {
			return ServiceErrorJSON(e, err)
		}
		start, err := services.ParseDate(q.Get("start_date"))
		if err != nil {
			return ServiceErrorJSON(e, err)
		}
		end, err := services.ParseDate(q.Get("end_date"))
		if err != nil {
			return ServiceErrorJSON(e, err)
		}
		duration, err := services.ResolveDuration(start, end, explicit)
		if err != nil {
			return ServiceErrorJSON(e, err)
		}

		price, err := calc.ComputePrice(pages, folders, duration)
		if err != nil {
			return ServiceErrorJSON(e, err)
		}
		log.Debug().Int("pages", pages).Int("folders", folders).Int("months", duration).
			Str("total", price.TotalValue.StringFixed(2)).Msg("quote computed")

		return e.JSON(http.StatusOK, QuoteResponse{
			PriceResult: price,
			Pages:       pages,
			Folders:     folders,
			Formatted: map[string]string{
				"base_monthly":     services.FormatBRL(price.BaseMonthlyAdjusted),
				"final_monthly":    services.FormatBRL(price.FinalMonthly),
				"total_value":      services.FormatBRL(price.TotalValue),
				"savings":          services.FormatBRL(price.Savings),
				"discount_percent": services.FormatPercent(price.DiscountRate),
			},
		})
	}
}

// HandlePriceSheet returns a handler that downloads the monthly price table
// for ?folders=N as a workbook.
func HandlePriceSheet(calc *services.PriceCalculator) func(*core.RequestEvent) error {
	log := logx.Component("price_sheet")
	return func(e *core.RequestEvent) error {
		folders, err := queryInt(e.Request.URL.Query(), "folders")
		if err != nil {
			return ServiceErrorJSON(e, err)
		}
		if folders < 0 {
			return ErrorJSON(e, http.StatusBadRequest, "folders must not be negative")
		}

		xlsxBytes, err := services.GeneratePriceSheet(calc, folders)
		if err != nil {
			log.Error().Err(err).Int("folders", folders).Msg("failed to generate price sheet")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to generate Excel file")
		}
		return attachment(e, xlsxContentType, fmt.Sprintf("tabela_precos_%d_pastas.xlsx", folders), xlsxBytes)
	}
}

// HandleServiceCatalog returns a handler listing the registered services.
func HandleServiceCatalog(catalog *services.Catalog) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, catalog.Services())
	}
}
