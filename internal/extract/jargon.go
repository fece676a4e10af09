package extract

import "docingest/internal/textutil"

// jargon holds generic document words that never identify a person.
// Keys are folded and lowercase.
var jargon = toSet(
	"contrato", "contract", "anexo", "attachment", "copia", "copy", "documento",
	"document", "doc", "docs", "arquivo", "file", "scan", "scanner", "digitalizado",
	"digitalizacao", "ficha", "registro", "cadastro", "admissao", "admissional",
	"demissao", "demissional", "rescisao", "ferias", "atestado", "medico",
	"holerite", "contracheque", "recibo", "comprovante", "residencia", "endereco",
	"rg", "cpf", "ctps", "cnh", "pis", "pasep", "titulo", "eleitor", "certidao",
	"nascimento", "casamento", "exame", "aso", "termo", "declaracao", "carteira",
	"trabalho", "foto", "identidade", "final", "assinado", "assinada", "versao",
	"pagina", "page", "frente", "verso", "img", "image", "imagem", "pdf", "jpg",
	"jpeg", "png", "tif", "tiff", "docx", "txt", "novo", "nova", "old", "new",
	"funcionario", "colaborador", "employee", "dados", "pessoais", "folha",
	"ponto", "advertencia", "suspensao", "treinamento", "certificado", "diploma",
	"curriculo", "cv", "laudo", "vale", "transporte", "beneficio", "beneficios",
	"salario", "aditivo", "acordo", "opcao", "fgts", "inss", "irrf", "ir",
	"dependentes", "dependente", "outros", "geral", "scaneado", "escaneado",
	"nome", "name", "completo", "matricula", "cracha", "badge", "id", "numero",
	"assinatura", "atenciosamente", "cordialmente", "signature", "sincerely",
)

// prepositions are dropped before counting meaningful tokens.
var prepositions = toSet(
	"de", "da", "do", "das", "dos", "e", "di", "du", "del", "della", "van", "von",
	"la", "le", "y", "a", "o",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsJargon reports whether every token of value is generic document jargon.
func IsJargon(value string) bool {
	tokens := textutil.Tokens(value)
	if len(tokens) == 0 {
		return false
	}
	for _, token := range tokens {
		if _, ok := jargon[token]; !ok {
			return false
		}
	}
	return true
}

func isJargonToken(token string) bool {
	_, ok := jargon[textutil.NormalizeForCompare(token)]
	return ok
}

func isPreposition(token string) bool {
	_, ok := prepositions[textutil.NormalizeForCompare(token)]
	return ok
}
