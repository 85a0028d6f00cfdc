package itemparser

import (
	"strings"
	"testing"

	"github.com/ginjaninja78/po-item-extractor/internal/config"
	"github.com/ginjaninja78/po-item-extractor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultSettings() config.ParserSettings {
	return config.Default().Parser
}

func lines(ls ...string) string {
	return strings.Join(ls, "\n")
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []types.ParsedItem
	}{
		{
			name: "empty text",
			text: "",
			want: []types.ParsedItem{},
		},
		{
			name: "no item-start line",
			text: lines("Purchase Order", "Document Ref: 4500012345", "PO Date: 01.02.2024", "36.000"),
			want: []types.ParsedItem{},
		},
		{
			name: "fixed-decimal quantity on the item line",
			text: "00010 Blue Widget 36.000 154.00",
			want: []types.ParsedItem{{ItemNumber: "00010", Name: "Blue Widget", Quantity: 36}},
		},
		{
			name: "code and standalone quantity in look-ahead",
			text: lines("20045 Steel Bolt", "Hardware section", "DIY28045", "48"),
			want: []types.ParsedItem{{ItemNumber: "20045", Name: "Steel Bolt", Quantity: 48, Code: "DIY28045"}},
		},
		{
			name: "unit of measure on the item line",
			text: "00020 Hex Nut 12 Pcs",
			want: []types.ParsedItem{{ItemNumber: "00020", Name: "Hex Nut", Quantity: 12}},
		},
		{
			name: "unit of measure on the item line ignores the ceiling",
			text: "00030 Washer 12,500 pieces",
			want: []types.ParsedItem{{ItemNumber: "00030", Name: "Washer", Quantity: 12500}},
		},
		{
			name: "dotted unit token",
			text: lines("00040 Spacer", "3 P.cs"),
			want: []types.ParsedItem{{ItemNumber: "00040", Name: "Spacer", Quantity: 3}},
		},
		{
			name: "code split over two lines",
			text: lines("20050 Wall Plug", "DIY", "28999", "24 Pcs"),
			want: []types.ParsedItem{{ItemNumber: "20050", Name: "Wall Plug", Quantity: 24, Code: "DIY28999"}},
		},
		{
			name: "split code digits are not a quantity",
			text: lines("20050 Wall Plug", "DIY", "01234", "24 Pcs"),
			want: []types.ParsedItem{{ItemNumber: "20050", Name: "Wall Plug", Quantity: 24, Code: "DIY01234"}},
		},
		{
			name: "split code needs enough digits",
			text: lines("20060 Anchor", "DIY", "1234"),
			want: []types.ParsedItem{{ItemNumber: "20060", Name: "Anchor", Quantity: 1234}},
		},
		{
			name: "identifiers at or above the ceiling are rejected",
			text: lines("30010 Bracket", "4500012345", "10000"),
			want: []types.ParsedItem{{ItemNumber: "30010", Name: "Bracket", Quantity: 0}},
		},
		{
			name: "rejected candidate falls through to a later line",
			text: lines("30020 Bracket", "15000", "9999"),
			want: []types.ParsedItem{{ItemNumber: "30020", Name: "Bracket", Quantity: 9999}},
		},
		{
			name: "labeled quantity",
			text: lines("30030 Angle Iron", "Qty: 7"),
			want: []types.ParsedItem{{ItemNumber: "30030", Name: "Angle Iron", Quantity: 7}},
		},
		{
			name: "quantity label is case-insensitive",
			text: lines("30031 Angle Iron", "QUANTITY ordered 1,250.50"),
			want: []types.ParsedItem{{ItemNumber: "30031", Name: "Angle Iron", Quantity: 1250.5}},
		},
		{
			name: "piece line fallback",
			text: lines("30040 Hinge", "Ordered 6", "Pieces"),
			want: []types.ParsedItem{{ItemNumber: "30040", Name: "Hinge", Quantity: 6}},
		},
		{
			name: "piece line right after the item line has no preceding number",
			text: lines("30050 Hinge 4", "Piece"),
			want: []types.ParsedItem{{ItemNumber: "30050", Name: "Hinge 4", Quantity: 0}},
		},
		{
			name: "trailing two-number block is stripped",
			text: "40010 Cable Tie 200 5 8",
			want: []types.ParsedItem{{ItemNumber: "40010", Name: "Cable Tie 200", Quantity: 0}},
		},
		{
			name: "single trailing number is kept",
			text: "40020 Bolt # 20092",
			want: []types.ParsedItem{{ItemNumber: "40020", Name: "Bolt # 20092", Quantity: 0}},
		},
		{
			name: "more than three decimals is not the quantity column",
			text: "40030 Resistor 1.2345",
			want: []types.ParsedItem{{ItemNumber: "40030", Name: "Resistor 1.2345", Quantity: 0}},
		},
		{
			name: "look-ahead stops at the next item",
			text: lines("50010 Alpha", "50020 Beta", "9"),
			want: []types.ParsedItem{
				{ItemNumber: "50010", Name: "Alpha", Quantity: 0},
				{ItemNumber: "50020", Name: "Beta", Quantity: 9},
			},
		},
		{
			name: "several items with mixed layouts",
			text: lines(
				"Document Ref: 4500012345",
				"00010 Blue Widget 36.000 154.00",
				"00020 Red Widget",
				"DIY12345",
				"12",
				"00030 Green Widget 5.000",
				"Total Including Sales Tax 1,000.00",
			),
			want: []types.ParsedItem{
				{ItemNumber: "00010", Name: "Blue Widget", Quantity: 36},
				{ItemNumber: "00020", Name: "Red Widget", Quantity: 12, Code: "DIY12345"},
				{ItemNumber: "00030", Name: "Green Widget", Quantity: 5},
			},
		},
		{
			name: "whitespace and blank lines are ignored",
			text: "\n\n   00010   Blue Widget   \r\n\n\t36.000\n",
			want: []types.ParsedItem{{ItemNumber: "00010", Name: "Blue Widget", Quantity: 36}},
		},
	}

	p := New(defaultSettings(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.text)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLookaheadWindow(t *testing.T) {
	filler := make([]string, 60)
	for i := range filler {
		filler[i] = "remark"
	}
	text := lines(append(append([]string{"60010 Far Away"}, filler...), "12")...)

	items := New(defaultSettings(), nil).Parse(text)
	require.Len(t, items, 1)
	assert.Zero(t, items[0].Quantity, "quantity outside the window must not be used")

	settings := defaultSettings()
	settings.LookaheadWindow = 100
	items = New(settings, nil).Parse(text)
	require.Len(t, items, 1)
	assert.Equal(t, 12.0, items[0].Quantity)
}

func TestParseConfigurableThresholds(t *testing.T) {
	t.Run("max quantity", func(t *testing.T) {
		settings := defaultSettings()
		settings.MaxQuantity = 20000

		items := New(settings, nil).Parse(lines("70010 Sheet", "15000"))
		require.Len(t, items, 1)
		assert.Equal(t, 15000.0, items[0].Quantity)
	})

	t.Run("code prefix", func(t *testing.T) {
		settings := defaultSettings()
		settings.CodePrefix = "ABC"

		items := New(settings, nil).Parse(lines("70020 Panel", "ABC55555", "DIY28045", "4"))
		require.Len(t, items, 1)
		assert.Equal(t, "ABC55555", items[0].Code)
		assert.Equal(t, 4.0, items[0].Quantity)
	})

	t.Run("quantity decimals", func(t *testing.T) {
		settings := defaultSettings()
		settings.QuantityDecimals = 2

		items := New(settings, nil).Parse("70030 Gasket 36.00 154.000")
		require.Len(t, items, 1)
		assert.Equal(t, "Gasket", items[0].Name)
		assert.Equal(t, 36.0, items[0].Quantity)
	})

	t.Run("unit tokens", func(t *testing.T) {
		settings := defaultSettings()
		settings.UnitTokens = []string{"Box"}

		items := New(settings, nil).Parse(lines("70040 Screws", "3 Box", "5 Pcs"))
		require.Len(t, items, 1)
		assert.Equal(t, 3.0, items[0].Quantity)
	})

	t.Run("non-ascii unit tokens", func(t *testing.T) {
		settings := defaultSettings()
		settings.UnitTokens = []string{"件", "Stück"}

		items := New(settings, nil).Parse(lines("70050 Bolt", "12件", "70060 Nut", "8 Stück", "70070 Washer", "9 Stückzahl"))
		require.Len(t, items, 3)
		assert.Equal(t, 12.0, items[0].Quantity)
		assert.Equal(t, 8.0, items[1].Quantity)
		assert.Zero(t, items[2].Quantity)
	})
}

func TestParseAlwaysAdvances(t *testing.T) {
	// Every line is an item start; each must produce exactly one item.
	text := lines("100 a", "200 b", "300 c", "400 d")
	items := New(defaultSettings(), nil).Parse(text)
	require.Len(t, items, 4)
	for i, want := range []string{"100", "200", "300", "400"} {
		assert.Equal(t, want, items[i].ItemNumber)
	}
}

func TestParseQuantity(t *testing.T) {
	assert.Equal(t, 1250.5, parseQuantity("1,250.50"))
	assert.Equal(t, 36.0, parseQuantity(" 36.000 "))
	assert.Zero(t, parseQuantity(",,"))
	assert.Zero(t, parseQuantity(""))
}

func TestUnitAlternation(t *testing.T) {
	assert.Equal(t, `Pieces\b|Piece\b|P\.cs\b|Pcs\b`, unitAlternation([]string{"Pcs", "Piece", "Pieces", "P.cs"}))
	assert.Equal(t, `Pcs\.`, unitAlternation([]string{" Pcs. ", ""}))
	assert.Empty(t, unitAlternation(nil))
	assert.Equal(t, `Stück\b|件`, unitAlternation([]string{"件", "Stück"}))
	assert.Equal(t, `Pcs·|шт`, unitAlternation([]string{"Pcs·", "шт"}))
}
