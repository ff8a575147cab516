package workflow

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/po_service/models"
	"github.com/mmdatafocus/po_service/utils"
)

// LineItem is one flat PO row as it arrives from the bulk envelope or a sheet.
type LineItem struct {
	PONumber      string   `json:"PONumber" validate:"required"`
	SKUId         string   `json:"SKUId" validate:"required"`
	ProductName   string   `json:"ProductName"`
	OrderedQty    *float64 `json:"OrderedQty" validate:"required,gte=0"`
	City          string   `json:"City" validate:"required"`
	VendorName    string   `json:"VendorName" validate:"required"`
	POCreatedDate string   `json:"POCreatedDate" validate:"required,isodate"`
}

type POGroup struct {
	PoNumber string
	Items    []LineItem
}

// GroupByPONumber validates every item and partitions them by PO number,
// keeping first-occurrence order of PO numbers and of items inside a group.
func GroupByPONumber(items []LineItem) ([]POGroup, error) {
	for i := range items {
		if err := validateLineItem(i, &items[i]); err != nil {
			return nil, err
		}
	}

	index := make(map[string]int)
	groups := make([]POGroup, 0)
	for _, item := range items {
		pos, ok := index[item.PONumber]
		if !ok {
			pos = len(groups)
			index[item.PONumber] = pos
			groups = append(groups, POGroup{PoNumber: item.PONumber})
		}
		groups[pos].Items = append(groups[pos].Items, item)
	}
	return groups, nil
}

func validateLineItem(idx int, item *LineItem) error {
	err := utils.ValidateStruct(item)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		return fmt.Errorf("item %d: field %s failed %q validation: %w", idx, fe.Field(), fe.Tag(), models.ErrInvalidInput)
	}
	return fmt.Errorf("item %d: %v: %w", idx, err, models.ErrInvalidInput)
}
