package cvdw

import (
	"database/sql"
	"time"

	"cvetl/internal/etl"
)

// TableVisitas holds one row per visit task.
const TableVisitas = "cv_visitas"

func init() {
	etl.RegisterEntity(etl.EntitySpec{
		Name:  "visitas",
		Label: "Visits",
		New:   newVisitas,
	})
}

func newVisitas() *etl.Entity {
	return &etl.Entity{
		Name:     TableVisitas,
		KeyField: "idtarefa",
		Base:     etl.Table{Name: TableVisitas, Key: []string{"idtarefa"}},
		Row:      func(key int64, r etl.RawRecord) any { return NewVisita(key, r) },
	}
}

// Visita is one row of cv_visitas. Flag columns hold a single
// upper-case character, normally S or N.
type Visita struct {
	IDTarefa       int64               `db:"idtarefa"`
	Referencia     sql.Null[string]    `db:"referencia"`
	ReferenciaData sql.Null[time.Time] `db:"referencia_data"`
	Ativo          sql.Null[string]    `db:"ativo"`

	DataCad  sql.Null[time.Time] `db:"data_cad"`
	Data     sql.Null[time.Time] `db:"data"`
	Situacao sql.Null[string]    `db:"situacao"`

	IDResponsavel   sql.Null[int64]  `db:"idresponsavel"`
	TipoResponsavel sql.Null[string] `db:"tipo_responsavel"`
	Responsavel     sql.Null[string] `db:"responsavel"`

	Funcionalidade sql.Null[string]    `db:"funcionalidade"`
	IDLead         sql.Null[string]    `db:"idlead"`
	IDInteracao    sql.Null[int64]     `db:"idinteracao"`
	TipoInteracao  sql.Null[string]    `db:"tipo_interacao"`
	DataConclusao  sql.Null[time.Time] `db:"data_conclusao"`

	IDTipoVisita   sql.Null[int64]  `db:"idtipo_visita"`
	NomeTipoVisita sql.Null[string] `db:"nome_tipo_visita"`
	VisitaVirtual  sql.Null[string] `db:"visita_virtual"`

	PDV       sql.Null[string] `db:"pdv"`
	PainelPDV sql.Null[string] `db:"painel_pdv"`

	IDResponsavelPorCriarVisita sql.Null[int64]  `db:"idresponsavel_por_criar_visita"`
	ResponsavelPorCriarVisita   sql.Null[string] `db:"responsavel_por_criar_visita"`

	IDEmpreendimento   sql.Null[int64]  `db:"idempreendimento"`
	NomeEmpreendimento sql.Null[string] `db:"nome_empreendimento"`
}

// NewVisita maps an API visit to its row.
func NewVisita(key int64, r etl.RawRecord) Visita {
	return Visita{
		IDTarefa:       key,
		Referencia:     etl.Text(r["referencia"]),
		ReferenciaData: etl.ParseTimestamp(r["referencia_data"]),
		Ativo:          etl.ParseFlag(r["ativo"]),

		DataCad:  etl.ParseTimestamp(r["data_cad"]),
		Data:     etl.ParseTimestamp(r["data"]),
		Situacao: etl.Text(r["situacao"]),

		IDResponsavel:   etl.ParseInt(r["idresponsavel"]),
		TipoResponsavel: etl.UpperText(r["tipo_responsavel"]),
		Responsavel:     etl.Text(r["responsavel"]),

		Funcionalidade: etl.Text(r["funcionalidade"]),
		IDLead:         etl.Text(r["idlead"]),
		IDInteracao:    etl.ParseInt(r["idinteracao"]),
		TipoInteracao:  etl.Text(r["tipo_interacao"]),
		DataConclusao:  etl.ParseTimestamp(r["data_conclusao"]),

		IDTipoVisita:   etl.ParseInt(r["idtipo_visita"]),
		NomeTipoVisita: etl.Text(r["nome_tipo_visita"]),
		VisitaVirtual:  etl.ParseFlag(r["visita_virtual"]),

		PDV:       etl.Text(r["pdv"]),
		PainelPDV: etl.ParseFlag(r["painel_pdv"]),

		IDResponsavelPorCriarVisita: etl.ParseInt(r["idresponsavel_por_criar_visita"]),
		ResponsavelPorCriarVisita:   etl.Text(r["responsavel_por_criar_visita"]),

		IDEmpreendimento:   etl.ParseInt(r["idempreendimento"]),
		NomeEmpreendimento: etl.Text(r["nome_empreendimento"]),
	}
}
