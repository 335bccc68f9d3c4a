package advisor

// promptTemplate frames the request for the model; %s receives the
// rendered transaction summary.
const promptTemplate = `Você é um consultor financeiro pessoal especialista.
Analise as seguintes transações financeiras recentes do usuário e forneça:
1. Uma breve análise do padrão de gastos.
2. 3 dicas práticas e acionáveis para economizar dinheiro baseadas nesses dados específicos.
3. Um breve comentário motivacional sobre a saúde financeira.

Mantenha a resposta formatada, amigável e direta (máximo de 200 palavras).

Transações:
%s`

// emptyAdvice is returned when the service answers without any text.
const emptyAdvice = "Não foi possível gerar uma análise no momento."

// Fallback is the fixed apology returned on any failure talking to the
// advisory service.
const Fallback = "Erro ao conectar com o consultor financeiro. Verifique sua chave de API ou tente novamente mais tarde."
