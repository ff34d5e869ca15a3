// Package seed fills a database with a deterministic sales dataset so the ask
// pipeline has something to answer questions about.
package seed

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Sale is one row of the demo table. Column names follow the schema
// description published alongside the data.
type Sale struct {
	DataVenda     time.Time `parquet:"DATA_VENDA,date"`
	Cliente       string    `parquet:"CLIENTE"`
	DescricaoItem string    `parquet:"DESCRICAO_ITEM"`
	Categoria     string    `parquet:"CATEGORIA"`
	QtdVenda      int64     `parquet:"QTD_VENDA"`
	ValorUnitario float64   `parquet:"VALOR_UNITARIO"`
	ValorTotal    float64   `parquet:"VALOR_TOTAL"`
}

type product struct {
	name     string
	category string
	minPrice float64
	maxPrice float64
}

var catalog = []product{
	{name: "Notebook Pro 14", category: "Informatica", minPrice: 3200, maxPrice: 5400},
	{name: "Monitor 27", category: "Informatica", minPrice: 900, maxPrice: 1900},
	{name: "Mouse sem fio", category: "Perifericos", minPrice: 49, maxPrice: 180},
	{name: "Teclado mecanico", category: "Perifericos", minPrice: 220, maxPrice: 650},
	{name: "Headset USB", category: "Perifericos", minPrice: 150, maxPrice: 480},
	{name: "Cadeira ergonomica", category: "Moveis", minPrice: 700, maxPrice: 2100},
	{name: "Mesa ajustavel", category: "Moveis", minPrice: 1100, maxPrice: 2600},
	{name: "Webcam HD", category: "Perifericos", minPrice: 120, maxPrice: 390},
	{name: "SSD 1TB", category: "Componentes", minPrice: 350, maxPrice: 720},
	{name: "Memoria 16GB", category: "Componentes", minPrice: 190, maxPrice: 420},
}

var customers = []string{
	"Alfa Comercio", "Beta Servicos", "Casa Nova Ltda", "Delta Engenharia",
	"Estrela Varejo", "Foco Digital", "Gama Logistica", "Horizonte Educacao",
}

type Generator struct {
	rnd   *rand.Rand
	start time.Time
	days  int
}

// NewGenerator produces the same sequence for the same seed, start and days.
func NewGenerator(seed int64, start time.Time, days int) *Generator {
	if days <= 0 {
		days = 1
	}
	return &Generator{
		rnd:   rand.New(rand.NewSource(seed)),
		start: time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		days:  days,
	}
}

func (g *Generator) NextSale() Sale {
	item := catalog[g.rnd.Intn(len(catalog))]
	quantity := g.pickQuantity(item)
	unitPrice := round2(item.minPrice + g.rnd.Float64()*(item.maxPrice-item.minPrice))
	return Sale{
		DataVenda:     g.start.AddDate(0, 0, g.rnd.Intn(g.days)),
		Cliente:       customers[g.rnd.Intn(len(customers))],
		DescricaoItem: item.name,
		Categoria:     item.category,
		QtdVenda:      quantity,
		ValorUnitario: unitPrice,
		ValorTotal:    round2(unitPrice * float64(quantity)),
	}
}

func (g *Generator) Generate(n int) []Sale {
	sales := make([]Sale, 0, n)
	for i := 0; i < n; i++ {
		sales = append(sales, g.NextSale())
	}
	return sales
}

// Cheap items sell in larger quantities.
func (g *Generator) pickQuantity(item product) int64 {
	switch {
	case item.maxPrice < 500:
		return int64(1 + g.rnd.Intn(20))
	case item.maxPrice < 2000:
		return int64(1 + g.rnd.Intn(6))
	default:
		return int64(1 + g.rnd.Intn(3))
	}
}

// SchemaText is the description the ask service embeds in its prompts.
func SchemaText(table string) string {
	return fmt.Sprintf(`Tabela: "%s" (uma linha por item vendido)
Colunas:
- "DATA_VENDA" DATE: dia da venda
- "CLIENTE" TEXT: nome do cliente
- "DESCRICAO_ITEM" TEXT: nome do produto
- "CATEGORIA" TEXT: categoria do produto (Informatica, Perifericos, Moveis, Componentes)
- "QTD_VENDA" INTEGER: quantidade vendida
- "VALOR_UNITARIO" NUMERIC(12,2): preco unitario em reais
- "VALOR_TOTAL" NUMERIC(12,2): QTD_VENDA * VALOR_UNITARIO`, table)
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
