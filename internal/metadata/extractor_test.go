package metadata

import (
	"testing"

	"github.com/ginjaninja78/po-item-extractor/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]string
	}{
		{
			name: "all fields",
			text: "Purchase Order\n" +
				"Document Ref: 4500012345\n" +
				"Vendor Name and Address\n" +
				"ACME Traders LHR - DHA - PHASE Lahore\n" +
				"PO Date: 14.03.2024\n" +
				"00010 Blue Widget 36.000 154.00\n" +
				"Total Including Sales Tax 1,234,567.50\n",
			want: map[string]string{
				types.MetaReferenceNumber: "4500012345",
				types.MetaLocation:        "LHR - DHA - PHASE",
				types.MetaDate:            "14.03.2024",
				types.MetaTotalAmount:     "1,234,567.50",
			},
		},
		{
			name: "no labels",
			text: "00010 Blue Widget 36.000 154.00",
			want: map[string]string{},
		},
		{
			name: "vendor label is case-insensitive and the location is compact",
			text: "VENDOR:\nKHI-SADDAR\n",
			want: map[string]string{types.MetaLocation: "KHI-SADDAR"},
		},
		{
			name: "vendor line without a location code",
			text: "Vendor\nSome lower case shop\nISB - F - SEVEN\n",
			want: map[string]string{},
		},
		{
			name: "vendor on the last line",
			text: "Vendor",
			want: map[string]string{},
		},
		{
			name: "date must be DD.MM.YYYY",
			text: "PO Date: 2024-03-14\nDocument Ref: 77",
			want: map[string]string{types.MetaReferenceNumber: "77"},
		},
		{
			name: "windows line endings",
			text: "Vendor\r\nLHR - GULBERG\r\nTotal Including Sales Tax 900\r\n",
			want: map[string]string{
				types.MetaLocation:    "LHR - GULBERG",
				types.MetaTotalAmount: "900",
			},
		},
	}

	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text))
		})
	}
}
