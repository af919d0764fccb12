package qa

import "fmt"

// Fixed user-facing fragments. The pipeline degrades to these instead of
// surfacing raw errors; their wording is part of the product contract.
const (
	// MsgNotFound is emitted when the store returns no rows for a question.
	MsgNotFound = "抱歉，我在知识图谱中没有找到相关信息，或者该问题超出了我的知识范围。"

	// MsgComposeError is emitted when answer generation fails mid-stream.
	MsgComposeError = "抱歉，生成回答时出现了系统错误。"

	// MsgTranslateError is emitted when the question could not be translated
	// into a query.
	MsgTranslateError = "系统繁忙，无法理解您的问题。"

	// MsgRejected is emitted when a question contains a denylisted term.
	MsgRejected = "抱歉，您的问题包含不适宜的内容，无法回答。"
)

// translatorSystemPrompt builds the system instruction for the text-to-Cypher
// step. The schema description is injected so the model only sees labels and
// relationship types the store actually holds.
func translatorSystemPrompt(schemaDescription string) string {
	return fmt.Sprintf(`你是一个 Neo4j Cypher 专家助手。你的任务是将用户的自然语言问题转换为 Neo4j Cypher 查询语句。

%s

规则：
1. 只返回 Cypher 语句，不要包含 markdown 格式（如 `+"```cypher"+`），不要包含任何解释。
2. 使用模糊匹配时请使用 CONTAINS。
3. 始终限制返回结果数量，例如 LIMIT 5。
4. 如果问题涉及推荐（如“适合喝什么”），请返回 Tea 节点的 name 和 efficacy 属性。

示例：
用户：金银花茶有什么功效？
Cypher: MATCH (n:Tea {name: '金银花茶'}) RETURN n.efficacy

用户：夏季适合喝什么茶？
Cypher: MATCH (t:Tea)-[:SUITABLE_FOR]->(s:Season {name: '夏季'}) RETURN t.name, t.efficacy`, schemaDescription)
}

// composerSystemPrompt is the persona instruction for answer generation.
const composerSystemPrompt = "你是一个中药代茶饮领域的专家助手。请根据用户的问题和提供的数据库查询结果，生成通顺、专业且亲切的回答。按条目逐一介绍，省略缺失的属性，保持简洁。"

// composerUserPrompt renders the question and the serialized query rows into
// the user message for answer generation.
func composerUserPrompt(question, renderedRows string) string {
	return fmt.Sprintf("用户问题：%s\n数据库查询结果：%s\n\n请生成回答：", question, renderedRows)
}
