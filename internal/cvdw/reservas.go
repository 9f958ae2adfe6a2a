package cvdw

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"cvetl/internal/etl"
)

// Reservation tables.
const (
	TableReservas                      = "cv_reservas"
	TableReservasCamposAdicionais      = "cv_reservas_campos_adicionais"
	TableReservasCamposAdicionaisContr = "cv_reservas_campos_adicionais_contrato"
)

func init() {
	etl.RegisterEntity(etl.EntitySpec{
		Name:  "reservas",
		Label: "Reservations",
		New:   newReservas,
	})
}

func newReservas() *etl.Entity {
	return &etl.Entity{
		Name:     TableReservas,
		KeyField: "idreserva",
		Base:     etl.Table{Name: TableReservas, Key: []string{"idreserva"}},
		Row:      func(key int64, r etl.RawRecord) any { return NewReserva(key, r) },
		Children: []etl.Child{
			{
				Table:   etl.Table{Name: TableReservasCamposAdicionais, Key: []string{"idreserva", "idcampo_valores"}},
				Field:   "campos_adicionais",
				Enabled: true,
				Row: func(parent sql.Null[int64], it etl.RawRecord) any {
					return NewReservaCampoAdicional(parent, it)
				},
			},
			{
				Table:   etl.Table{Name: TableReservasCamposAdicionaisContr, Key: []string{"idreserva", "idreservacontratocampoadicional"}},
				Field:   "campos_adicionais_contrato",
				Enabled: true,
				Row: func(parent sql.Null[int64], it etl.RawRecord) any {
					return NewCampoAdicionalContrato(parent, it)
				},
			},
		},
	}
}

// Reserva is one row of cv_reservas.
type Reserva struct {
	IDReserva      int64               `db:"idreserva"`
	Referencia     sql.Null[string]    `db:"referencia"`
	ReferenciaData sql.Null[time.Time] `db:"referencia_data"`
	Ativo          sql.Null[string]    `db:"ativo"`

	CodigoInterno sql.Null[string] `db:"codigointerno"`
	NumeroVenda   sql.Null[string] `db:"numero_venda"`
	Aprovada      sql.Null[string] `db:"aprovada"`

	DataCad           sql.Null[time.Time] `db:"data_cad"`
	DataVenda         sql.Null[time.Time] `db:"data_venda"`
	Situacao          sql.Null[string]    `db:"situacao"`
	IDSituacao        sql.Null[int64]     `db:"idsituacao"`
	SituacaoComercial sql.Null[string]    `db:"situacao_comercial"`

	IDEmpreendimento            sql.Null[int64]  `db:"idempreendimento"`
	CodigoInternoEmpreendimento sql.Null[string] `db:"codigointerno_empreendimento"`
	Empreendimento              sql.Null[string] `db:"empreendimento"`

	DataEntregaChavesContratoCliente sql.Null[time.Time] `db:"data_entrega_chaves_contrato_cliente"`
	Etapa                            sql.Null[string]    `db:"etapa"`
	Bloco                            sql.Null[string]    `db:"bloco"`
	Unidade                          sql.Null[string]    `db:"unidade"`
	Regiao                           sql.Null[string]    `db:"regiao"`
	Venda                            sql.Null[string]    `db:"venda"`

	IDCliente        sql.Null[int64]  `db:"idcliente"`
	DocumentoCliente sql.Null[string] `db:"documento_cliente"`
	Cliente          sql.Null[string] `db:"cliente"`
	Email            sql.Null[string] `db:"email"`
	Cidade           sql.Null[string] `db:"cidade"`
	CEPCliente       sql.Null[string] `db:"cep_cliente"`

	Renda       decimal.NullDecimal `db:"renda"`
	Sexo        sql.Null[string]    `db:"sexo"`
	Idade       sql.Null[int64]     `db:"idade"`
	EstadoCivil sql.Null[string]    `db:"estado_civil"`

	IDCorretor sql.Null[int64]  `db:"idcorretor"`
	Corretor   sql.Null[string] `db:"corretor"`

	IDImobiliaria sql.Null[int64]  `db:"idimobiliaria"`
	Imobiliaria   sql.Null[string] `db:"imobiliaria"`

	IDTime   sql.Null[int64]  `db:"idtime"`
	NomeTime sql.Null[string] `db:"nome_time"`

	ValorContrato         decimal.NullDecimal `db:"valor_contrato"`
	Vencimento            sql.Null[time.Time] `db:"vencimento"`
	Campanha              sql.Null[string]    `db:"campanha"`
	Cessao                sql.Null[string]    `db:"cessao"`
	MotivoCancelamento    sql.Null[string]    `db:"motivo_cancelamento"`
	DataCancelamento      sql.Null[time.Time] `db:"data_cancelamento"`
	EspacosComplementares sql.Null[string]    `db:"espacos_complementares"`

	IDLead                      sql.Null[string]    `db:"idlead"`
	DataUltimaAlteracaoSituacao sql.Null[time.Time] `db:"data_ultima_alteracao_situacao"`

	IDEmpresaCorrespondente sql.Null[int64]  `db:"idempresa_correspondente"`
	EmpresaCorrespondente   sql.Null[string] `db:"empresa_correspondente"`

	ValorFGTS          decimal.NullDecimal `db:"valor_fgts"`
	ValorFinanciamento decimal.NullDecimal `db:"valor_financiamento"`
	ValorSubsidio      decimal.NullDecimal `db:"valor_subsidio"`

	NomeUsuario                 sql.Null[string] `db:"nome_usuario"`
	IDUnidade                   sql.Null[int64]  `db:"idunidade"`
	IDPrecadastro               sql.Null[int64]  `db:"idprecadastro"`
	IDMidia                     sql.Null[int64]  `db:"idmidia"`
	Midia                       sql.Null[string] `db:"midia"`
	DescricaoMotivoCancelamento sql.Null[string] `db:"descricao_motivo_cancelamento"`

	IDSituacaoAnterior sql.Null[int64]  `db:"idsituacao_anterior"`
	SituacaoAnterior   sql.Null[string] `db:"situacao_anterior"`

	IDTabela            sql.Null[int64]  `db:"idtabela"`
	NomeTabela          sql.Null[string] `db:"nometabela"`
	CodigoInternoTabela sql.Null[string] `db:"codigointernotabela"`
	IDTipoTabela        sql.Null[int64]  `db:"idtipo_tabela"`
	TipoTabela          sql.Null[string] `db:"tipo_tabela"`

	DataContrato  sql.Null[time.Time] `db:"data_contrato"`
	ValorProposta decimal.NullDecimal `db:"valor_proposta"`
	VPLReserva    decimal.NullDecimal `db:"vpl_reserva"`
	VGVTabela     decimal.NullDecimal `db:"vgv_tabela"`
	VPLTabela     decimal.NullDecimal `db:"vpl_tabela"`

	UsuarioAprovacao                 sql.Null[string]    `db:"usuario_aprovacao"`
	DataAprovacao                    sql.Null[time.Time] `db:"data_aprovacao"`
	JurosCondicaoAprovada            decimal.NullDecimal `db:"juros_condicao_aprovada"`
	JurosAposEntregaCondicaoAprovada decimal.NullDecimal `db:"juros_apos_entrega_condicao_aprovada"`
	IDTabelaCondicaoAprovada         sql.Null[int64]     `db:"idtabela_condicao_aprovada"`
	DataPrimeiraAprovacao            sql.Null[time.Time] `db:"data_primeira_aprovacao"`
	AprovacaoAbsoluto                decimal.NullDecimal `db:"aprovacao_absoluto"`
	AprovacaoVPLValor                decimal.NullDecimal `db:"aprovacao_vpl_valor"`

	IDTipoVenda sql.Null[int64]  `db:"idtipovenda"`
	TipoVenda   sql.Null[string] `db:"tipovenda"`
	IDGrupo     sql.Null[int64]  `db:"idgrupo"`
	Grupo       sql.Null[string] `db:"grupo"`

	DataModificacao sql.Null[time.Time] `db:"data_modificacao"`
}

// NewReserva maps an API reservation to its row.
func NewReserva(key int64, r etl.RawRecord) Reserva {
	return Reserva{
		IDReserva:      key,
		Referencia:     etl.Text(r["referencia"]),
		ReferenciaData: etl.ParseTimestamp(r["referencia_data"]),
		Ativo:          etl.NonEmptyText(r["ativo"]),

		CodigoInterno: etl.Text(r["codigointerno"]),
		NumeroVenda:   etl.Text(r["numero_venda"]),
		Aprovada:      etl.Text(r["aprovada"]),

		DataCad:           etl.ParseTimestamp(r["data_cad"]),
		DataVenda:         etl.ParseTimestamp(r["data_venda"]),
		Situacao:          etl.Text(r["situacao"]),
		IDSituacao:        etl.ParseInt(r["idsituacao"]),
		SituacaoComercial: etl.Text(r["situacao_comercial"]),

		IDEmpreendimento:            etl.ParseInt(r["idempreendimento"]),
		CodigoInternoEmpreendimento: etl.Text(r["codigointerno_empreendimento"]),
		Empreendimento:              etl.Text(r["empreendimento"]),

		DataEntregaChavesContratoCliente: etl.ParseDate(r["data_entrega_chaves_contrato_cliente"]),
		Etapa:                            etl.Text(r["etapa"]),
		Bloco:                            etl.Text(r["bloco"]),
		Unidade:                          etl.Text(r["unidade"]),
		Regiao:                           etl.Text(r["regiao"]),
		Venda:                            etl.Text(r["venda"]),

		IDCliente:        etl.ParseInt(r["idcliente"]),
		DocumentoCliente: etl.Text(r["documento_cliente"]),
		Cliente:          etl.Text(r["cliente"]),
		Email:            etl.Text(r["email"]),
		Cidade:           etl.Text(r["cidade"]),
		CEPCliente:       etl.Text(r["cep_cliente"]),

		Renda:       etl.ParseDecimal(r["renda"]),
		Sexo:        etl.Text(r["sexo"]),
		Idade:       etl.ParseInt(r["idade"]),
		EstadoCivil: etl.Text(r["estado_civil"]),

		IDCorretor: etl.ParseInt(r["idcorretor"]),
		Corretor:   etl.Text(r["corretor"]),

		IDImobiliaria: etl.ParseInt(r["idimobiliaria"]),
		Imobiliaria:   etl.Text(r["imobiliaria"]),

		IDTime:   etl.ParseInt(r["idtime"]),
		NomeTime: etl.Text(r["nome_time"]),

		ValorContrato:         etl.ParseDecimal(r["valor_contrato"]),
		Vencimento:            etl.ParseTimestamp(r["vencimento"]),
		Campanha:              etl.Text(r["campanha"]),
		Cessao:                etl.Text(r["cessao"]),
		MotivoCancelamento:    etl.Text(r["motivo_cancelamento"]),
		DataCancelamento:      etl.ParseTimestamp(r["data_cancelamento"]),
		EspacosComplementares: etl.Text(r["espacos_complementares"]),

		IDLead:                      etl.Text(r["idlead"]),
		DataUltimaAlteracaoSituacao: etl.ParseTimestamp(r["data_ultima_alteracao_situacao"]),

		IDEmpresaCorrespondente: etl.ParseInt(r["idempresa_correspondente"]),
		EmpresaCorrespondente:   etl.Text(r["empresa_correspondente"]),

		ValorFGTS:          etl.ParseDecimal(r["valor_fgts"]),
		ValorFinanciamento: etl.ParseDecimal(r["valor_financiamento"]),
		ValorSubsidio:      etl.ParseDecimal(r["valor_subsidio"]),

		NomeUsuario:                 etl.Text(r["nome_usuario"]),
		IDUnidade:                   etl.ParseInt(r["idunidade"]),
		IDPrecadastro:               etl.ParseInt(r["idprecadastro"]),
		IDMidia:                     etl.ParseInt(r["idmidia"]),
		Midia:                       etl.Text(r["midia"]),
		DescricaoMotivoCancelamento: etl.Text(r["descricao_motivo_cancelamento"]),

		IDSituacaoAnterior: etl.ParseInt(r["idsituacao_anterior"]),
		SituacaoAnterior:   etl.Text(r["situacao_anterior"]),

		IDTabela:            etl.ParseInt(r["idtabela"]),
		NomeTabela:          etl.Text(r["nometabela"]),
		CodigoInternoTabela: etl.Text(r["codigointernotabela"]),
		IDTipoTabela:        etl.ParseInt(r["idtipo_tabela"]),
		TipoTabela:          etl.Text(r["tipo_tabela"]),

		DataContrato:  etl.ParseDate(r["data_contrato"]),
		ValorProposta: etl.ParseDecimal(r["valor_proposta"]),
		VPLReserva:    etl.ParseDecimal(r["vpl_reserva"]),
		VGVTabela:     etl.ParseDecimal(r["vgv_tabela"]),
		VPLTabela:     etl.ParseDecimal(r["vpl_tabela"]),

		UsuarioAprovacao:                 etl.Text(r["usuario_aprovacao"]),
		DataAprovacao:                    etl.ParseDate(r["data_aprovacao"]),
		JurosCondicaoAprovada:            etl.ParseDecimal(r["juros_condicao_aprovada"]),
		JurosAposEntregaCondicaoAprovada: etl.ParseDecimal(r["juros_apos_entrega_condicao_aprovada"]),
		IDTabelaCondicaoAprovada:         etl.ParseInt(r["idtabela_condicao_aprovada"]),
		DataPrimeiraAprovacao:            etl.ParseDate(r["data_primeira_aprovacao"]),
		AprovacaoAbsoluto:                etl.ParseDecimal(r["aprovacao_absoluto"]),
		AprovacaoVPLValor:                etl.ParseDecimal(r["aprovacao_vpl_valor"]),

		IDTipoVenda: etl.ParseInt(r["idtipovenda"]),
		TipoVenda:   etl.Text(r["tipovenda"]),
		IDGrupo:     etl.ParseInt(r["idgrupo"]),
		Grupo:       etl.Text(r["grupo"]),

		DataModificacao: etl.ParseTimestamp(r["data_modificacao"]),
	}
}

// ReservaCampoAdicional is one row of cv_reservas_campos_adicionais.
type ReservaCampoAdicional struct {
	IDReserva sql.Null[int64] `db:"idreserva"`
	CampoAdicional
}

// NewReservaCampoAdicional maps one custom-field item of a reservation.
func NewReservaCampoAdicional(parent sql.Null[int64], it etl.RawRecord) ReservaCampoAdicional {
	return ReservaCampoAdicional{IDReserva: parent, CampoAdicional: newCampoAdicional(it)}
}

// CampoAdicionalContrato is one row of cv_reservas_campos_adicionais_contrato.
type CampoAdicionalContrato struct {
	IDReservaContratoCampoAdicional sql.Null[int64]     `db:"idreservacontratocampoadicional"`
	IDReserva                       sql.Null[int64]     `db:"idreserva"`
	Referencia                      sql.Null[string]    `db:"referencia"`
	ReferenciaData                  sql.Null[time.Time] `db:"referencia_data"`
	IDCampo                         sql.Null[int64]     `db:"idcampo"`
	Nome                            sql.Null[string]    `db:"nome"`
	Valor                           sql.Null[string]    `db:"valor"`
	Tipo                            sql.Null[string]    `db:"tipo"`
}

// NewCampoAdicionalContrato maps one contract custom-field item.
func NewCampoAdicionalContrato(parent sql.Null[int64], it etl.RawRecord) CampoAdicionalContrato {
	return CampoAdicionalContrato{
		IDReservaContratoCampoAdicional: etl.ParseInt(it["idreservacontratocampoadicional"]),
		IDReserva:                       parent,
		Referencia:                      etl.Text(it["referencia"]),
		ReferenciaData:                  etl.ParseTimestamp(it["referencia_data"]),
		IDCampo:                         etl.ParseInt(it["idcampo"]),
		Nome:                            etl.Text(it["nome"]),
		Valor:                           etl.Text(it["valor"]),
		Tipo:                            etl.Text(it["tipo"]),
	}
}
