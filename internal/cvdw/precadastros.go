package cvdw

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"cvetl/internal/etl"
)

// Pre-registration tables.
const (
	TablePrecadastros                 = "cv_precadastros"
	TablePrecadastrosCamposAdicionais = "cv_precadastros_campos_adicionais"
)

func init() {
	etl.RegisterEntity(etl.EntitySpec{
		Name:  "precadastros",
		Label: "Pre-registrations",
		New:   newPrecadastros,
	})
}

func newPrecadastros() *etl.Entity {
	return &etl.Entity{
		Name:     TablePrecadastros,
		KeyField: "idprecadastro",
		Base:     etl.Table{Name: TablePrecadastros, Key: []string{"idprecadastro"}},
		Row:      func(key int64, r etl.RawRecord) any { return NewPrecadastro(key, r) },
		Children: []etl.Child{
			{
				Table:   etl.Table{Name: TablePrecadastrosCamposAdicionais, Key: []string{"idprecadastro", "idcampo_valores"}},
				Field:   "campos_adicionais",
				Enabled: true,
				Row: func(parent sql.Null[int64], it etl.RawRecord) any {
					return NewPrecadastroCampoAdicional(parent, it)
				},
			},
		},
	}
}

// Precadastro is one row of cv_precadastros.
type Precadastro struct {
	IDPrecadastro int64 `db:"idprecadastro"`

	Referencia       sql.Null[string]    `db:"referencia"`
	ReferenciaData   sql.Null[time.Time] `db:"referencia_data"`
	Ativo            sql.Null[string]    `db:"ativo"`
	CodigoInterno    sql.Null[string]    `db:"codigointerno"`
	IDSituacao       sql.Null[int64]     `db:"idsituacao"`
	Situacao         sql.Null[string]    `db:"situacao"`
	CondicaoAprovada sql.Null[string]    `db:"condicao_aprovada"`

	IDEmpreendimento sql.Null[int64]  `db:"idempreendimento"`
	Empreendimento   sql.Null[string] `db:"empreendimento"`
	IDUnidade        sql.Null[int64]  `db:"idunidade"`
	Unidade          sql.Null[string] `db:"unidade"`
	IDCorretor       sql.Null[int64]  `db:"idcorretor"`
	Corretor         sql.Null[string] `db:"corretor"`
	IDImobiliaria    sql.Null[int64]  `db:"idimobiliaria"`
	Imobiliaria      sql.Null[string] `db:"imobiliaria"`
	IDEmpresa        sql.Null[int64]  `db:"idempresa"`
	Empresa          sql.Null[string] `db:"empresa"`
	IDPessoa         sql.Null[int64]  `db:"idpessoa"`

	Pessoa     sql.Null[string] `db:"pessoa"`
	CEPCliente sql.Null[string] `db:"cep_cliente"`

	IDUsuarioCorrespondente sql.Null[int64]  `db:"idusuario_correspondente"`
	UsuarioCorrespondente   sql.Null[string] `db:"usuario_correspondente"`
	EmpresaCorrespondente   sql.Null[string] `db:"empresa_correspondente"`

	// Comma-separated when the pre-registration has several leads.
	IDLead sql.Null[string] `db:"idlead"`

	RendaClientePrincipal decimal.NullDecimal `db:"renda_cliente_principal"`
	ValorAvaliacao        decimal.NullDecimal `db:"valor_avaliacao"`
	ValorAprovado         decimal.NullDecimal `db:"valor_aprovado"`
	ValorSubsidio         decimal.NullDecimal `db:"valor_subsidio"`
	ValorTotal            decimal.NullDecimal `db:"valor_total"`
	ValorFGTS             decimal.NullDecimal `db:"valor_fgts"`
	SaldoDevedor          decimal.NullDecimal `db:"saldo_devedor"`
	ValorPrestacao        decimal.NullDecimal `db:"valor_prestacao"`
	RendaTotal            decimal.NullDecimal `db:"renda_total"`

	Prazo               sql.Null[int64]     `db:"prazo"`
	Observacoes         sql.Null[string]    `db:"observacoes"`
	Tabela              sql.Null[string]    `db:"tabela"`
	CartaCredito        sql.Null[string]    `db:"carta_credito"`
	VencimentoAprovacao sql.Null[time.Time] `db:"vencimento_aprovacao"`

	IDMotivoReprovacao          sql.Null[int64]  `db:"idmotivo_reprovacao"`
	MotivoReprovacao            sql.Null[string] `db:"motivo_reprovacao"`
	DescricaoMotivoReprovacao   sql.Null[string] `db:"descricao_motivo_reprovacao"`
	IDMotivoCancelamento        sql.Null[int64]  `db:"idmotivo_cancelamento"`
	MotivoCancelamento          sql.Null[string] `db:"motivo_cancelamento"`
	DescricaoMotivoCancelamento sql.Null[string] `db:"descricao_motivo_cancelamento"`

	SLAVencimento               sql.Null[int64]     `db:"sla_vencimento"`
	DataCad                     sql.Null[time.Time] `db:"data_cad"`
	IDSituacaoAnterior          sql.Null[int64]     `db:"idsituacao_anterior"`
	SituacaoAnterior            sql.Null[string]    `db:"situacao_anterior"`
	DataUltimaAlteracaoSituacao sql.Null[time.Time] `db:"data_ultima_alteracao_situacao"`

	IDIntencaoCompra sql.Null[int64]  `db:"idintencao_compra"`
	IntencaoCompra   sql.Null[string] `db:"intencao_compra"`
}

// NewPrecadastro maps an API pre-registration to its row.
func NewPrecadastro(key int64, r etl.RawRecord) Precadastro {
	return Precadastro{
		IDPrecadastro: key,

		Referencia:       etl.Text(r["referencia"]),
		ReferenciaData:   etl.ParseTimestamp(r["referencia_data"]),
		Ativo:            etl.NonEmptyText(r["ativo"]),
		CodigoInterno:    etl.Text(r["codigointerno"]),
		IDSituacao:       etl.ParseInt(r["idsituacao"]),
		Situacao:         etl.Text(r["situacao"]),
		CondicaoAprovada: etl.NonEmptyText(r["condicao_aprovada"]),

		IDEmpreendimento: etl.ParseInt(r["idempreendimento"]),
		Empreendimento:   etl.Text(r["empreendimento"]),
		IDUnidade:        etl.ParseInt(r["idunidade"]),
		Unidade:          etl.Text(r["unidade"]),
		IDCorretor:       etl.ParseInt(r["idcorretor"]),
		Corretor:         etl.Text(r["corretor"]),
		IDImobiliaria:    etl.ParseInt(r["idimobiliaria"]),
		Imobiliaria:      etl.Text(r["imobiliaria"]),
		IDEmpresa:        etl.ParseInt(r["idempresa"]),
		Empresa:          etl.Text(r["empresa"]),
		IDPessoa:         etl.ParseInt(r["idpessoa"]),

		Pessoa:     etl.Text(r["pessoa"]),
		CEPCliente: etl.Text(r["cep_cliente"]),

		IDUsuarioCorrespondente: etl.ParseInt(r["idusuario_correspondente"]),
		UsuarioCorrespondente:   etl.Text(r["usuario_correspondente"]),
		EmpresaCorrespondente:   etl.Text(r["empresa_correspondente"]),

		IDLead: etl.Text(r["idlead"]),

		RendaClientePrincipal: etl.ParseDecimal(r["renda_cliente_principal"]),
		ValorAvaliacao:        etl.ParseDecimal(r["valor_avaliacao"]),
		ValorAprovado:         etl.ParseDecimal(r["valor_aprovado"]),
		ValorSubsidio:         etl.ParseDecimal(r["valor_subsidio"]),
		ValorTotal:            etl.ParseDecimal(r["valor_total"]),
		ValorFGTS:             etl.ParseDecimal(r["valor_fgts"]),
		SaldoDevedor:          etl.ParseDecimal(r["saldo_devedor"]),
		ValorPrestacao:        etl.ParseDecimal(r["valor_prestacao"]),
		RendaTotal:            etl.ParseDecimal(r["renda_total"]),

		Prazo:               etl.ParseInt(r["prazo"]),
		Observacoes:         etl.Text(r["observacoes"]),
		Tabela:              etl.Text(r["tabela"]),
		CartaCredito:        etl.Text(r["carta_credito"]),
		VencimentoAprovacao: etl.ParseDate(r["vencimento_aprovacao"]),

		IDMotivoReprovacao:          etl.ParseInt(r["idmotivo_reprovacao"]),
		MotivoReprovacao:            etl.Text(r["motivo_reprovacao"]),
		DescricaoMotivoReprovacao:   etl.Text(r["descricao_motivo_reprovacao"]),
		IDMotivoCancelamento:        etl.ParseInt(r["idmotivo_cancelamento"]),
		MotivoCancelamento:          etl.Text(r["motivo_cancelamento"]),
		DescricaoMotivoCancelamento: etl.Text(r["descricao_motivo_cancelamento"]),

		SLAVencimento:               etl.ParseInt(r["sla_vencimento"]),
		DataCad:                     etl.ParseTimestamp(r["data_cad"]),
		IDSituacaoAnterior:          etl.ParseInt(r["idsituacao_anterior"]),
		SituacaoAnterior:            etl.Text(r["situacao_anterior"]),
		DataUltimaAlteracaoSituacao: etl.ParseTimestamp(r["data_ultima_alteracao_situacao"]),

		IDIntencaoCompra: etl.ParseInt(r["idintencao_compra"]),
		IntencaoCompra:   etl.Text(r["intencao_compra"]),
	}
}

// PrecadastroCampoAdicional is one row of cv_precadastros_campos_adicionais.
type PrecadastroCampoAdicional struct {
	IDPrecadastro sql.Null[int64] `db:"idprecadastro"`
	CampoAdicional
}

// NewPrecadastroCampoAdicional maps one custom-field item of a pre-registration.
func NewPrecadastroCampoAdicional(parent sql.Null[int64], it etl.RawRecord) PrecadastroCampoAdicional {
	return PrecadastroCampoAdicional{IDPrecadastro: parent, CampoAdicional: newCampoAdicional(it)}
}
