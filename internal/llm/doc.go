// Package llm — цепочка провайдеров языковых моделей.
//
// Provider генерирует ответ на один запрос. Chain опрашивает провайдеров
// по порядку и возвращает первый непустой ответ; если все провайдеры
// упали, возвращается ErrAllProvidersFailed со списком причин.
//
// Реализации:
//   - OllamaProvider — локальный Ollama через github.com/ollama/ollama/api
//   - OpenAIProvider — любой OpenAI-совместимый /chat/completions
//   - CommandProvider — внешний CLI-агент, prompt на stdin, ответ из stdout
package llm
