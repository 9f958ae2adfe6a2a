package cvdw

import (
	"database/sql"
	"time"

	"cvetl/internal/etl"
)

// CampoAdicional holds the columns shared by the custom-field tables.
// Each table embeds it after its own parent key column.
type CampoAdicional struct {
	Referencia     sql.Null[string]    `db:"referencia"`
	ReferenciaData sql.Null[time.Time] `db:"referencia_data"`
	IDCampoValores sql.Null[int64]     `db:"idcampo_valores"`
	IDCampo        sql.Null[int64]     `db:"idcampo"`
	Nome           sql.Null[string]    `db:"nome"`
	Valor          sql.Null[string]    `db:"valor"`
	Tipo           sql.Null[string]    `db:"tipo"`
}

func newCampoAdicional(it etl.RawRecord) CampoAdicional {
	return CampoAdicional{
		Referencia:     etl.Text(it["referencia"]),
		ReferenciaData: etl.ParseTimestamp(it["referencia_data"]),
		IDCampoValores: etl.ParseInt(it["idcampo_valores"]),
		IDCampo:        etl.ParseInt(it["idcampo"]),
		Nome:           etl.Text(it["nome"]),
		Valor:          etl.Text(it["valor"]),
		Tipo:           etl.Text(it["tipo"]),
	}
}
