package models

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidDataFormat marks a bridge payload whose shape does not match the contract.
var ErrInvalidDataFormat = errors.New("invalid data format")

// ProductionBatch is one row of the bridge production list. Field names follow
// the SAP export the bridge forwards.
type ProductionBatch struct {
	NumPlanej          string `json:"numPlanej"`
	Mjahr              string `json:"mjahr"`
	WerksPrd           string `json:"werksPrd"`
	OrdemPrd           string `json:"ordemPrd"`
	TipoPlanej         string `json:"tipoPlanej"`
	MateriaPrima       string `json:"materiaPrima"`
	QtdeConsumirMp     string `json:"QtdeConsumirMp"`
	PesoConsumirMp     string `json:"pesoConsumirMp"`
	PesoLiqUnitMp      string `json:"pesoLiqUnitMp"`
	ProdutoAcab        string `json:"produtoacab"`
	QtdeProduzir       string `json:"qtdeProduzir"`
	PesoProduzir       string `json:"pesoProduzir"`
	Umb                string `json:"umb"`
	PesoLiqUnitPa      string `json:"pesoLiqUnitPa"`
	PesoBrutUnitPa     string `json:"pesoBrutUnitPa"`
	Lote               string `json:"lote"`
	LoteForn           string `json:"loteforn"`
	DataPrd            string `json:"dataPrd"`
	HoraProduzir       string `json:"horaProduzir"`
	QtdeRealProd       string `json:"qtdeRealProd"`
	PesoRealLiqUnit    string `json:"pesoRealLiqUnit"`
	PesoRealBrutUnit   string `json:"pesoRealBrutUnit"`
	PesoRealLiqTotal   string `json:"pesoRealLiqTotal"`
	PesoRealBrutTotal  string `json:"pesoRealBrutTotal"`
	Confirmacao        string `json:"confirmacao"`
	NumConf            string `json:"numConf"`
	NumMaquina         string `json:"numMaquina"`
	Prioridade         string `json:"prioridade"`
	NumPrioridade      string `json:"numPrioridade"`
	CodEmbalagem       string `json:"codEmbalagem"`
	Pms                string `json:"pms"`
	Margem             string `json:"margem"`
	CodCultivar        string `json:"codCultivar"`
	CodTecnologia      string `json:"codTecnologia"`
	CodAgrupador       string `json:"codAgrupador"`
	CodCiclo           string `json:"codCiclo"`
	CodTsi             string `json:"codTsi"`
	CodTipo            string `json:"codTipo"`
	CodCategoria       string `json:"codCategoria"`
	Peneira            string `json:"peneira"`
	NumSementes        string `json:"numSementes"`
	PesoBag            string `json:"pesoBag"`
	GerPrevia          string `json:"gerPrevia"`
	GerOficial         string `json:"gerOficial"`
	Observacao         string `json:"observacao"`
	DataRegistro       string `json:"dataRegistro"`
	HoraRegistro       string `json:"horaRegistro"`
	Usuario            string `json:"usuario"`
	Status             string `json:"status"`
	DescMateriaPrima   string `json:"descMateriaPrima"`
	DescProdutoAcabado string `json:"descProdutoAcabado"`
	DescPrioridade     string `json:"descPrioridade"`
	DescCodEmbalagem   string `json:"descCodEmbalagem"`
	DescCultivar       string `json:"descCultivar"`
	DescTecnologia     string `json:"descTecnologia"`
	DescCodAgrupador   string `json:"descCodAgrupador"`
	DescCiclo          string `json:"descCiclo"`
	DescCodTsi         string `json:"descCodTsi"`
	DescCodTipo        string `json:"descCodTipo"`
	DescCodCategoria   string `json:"descCodCategoria"`
	DescStatus         string `json:"descStatus"`
}

// RowKey builds the composite row identity used for expansion. The bridge does
// not guarantee numPlanej is unique across pages, so lot and order are appended.
func (b ProductionBatch) RowKey(index int) string {
	np := strings.TrimSpace(b.NumPlanej)
	if np == "" {
		np = "np"
	}
	lot := strings.TrimSpace(b.Lote)
	if lot == "" {
		lot = "lt"
	}
	order := strings.TrimSpace(b.OrdemPrd)
	if order == "" {
		order = strconv.Itoa(index)
	}
	return np + "-" + lot + "-" + order
}

// ProductionDate formats dataPrd (YYYYMMDD) as DD/MM/YYYY.
func (b ProductionBatch) ProductionDate() string {
	return FormatSAPDate(b.DataPrd)
}

// ProductionTime formats horaProduzir (HHMMSS) as HH:MM:SS.
func (b ProductionBatch) ProductionTime() string {
	return FormatSAPTime(b.HoraProduzir)
}

func FormatSAPDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) != 8 {
		return "-"
	}
	return raw[6:8] + "/" + raw[4:6] + "/" + raw[0:4]
}

func FormatSAPTime(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) != 6 {
		return "-"
	}
	return raw[0:2] + ":" + raw[2:4] + ":" + raw[4:6]
}

// CommandResult is the only contract of the status and list-reload endpoints.
type CommandResult struct {
	StatusErro bool `json:"statusErro"`
}

// DeviceStatus is one element of the CLP status array.
type DeviceStatus struct {
	Status bool `json:"status"`
}

// CredentialStatus is one element of the credential check array.
type CredentialStatus struct {
	Status bool `json:"status"`
}

// DeviceOnline reports whether the CLP answered online; the first element wins.
func DeviceOnline(statuses []DeviceStatus) bool {
	return len(statuses) > 0 && statuses[0].Status
}
