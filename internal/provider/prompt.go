package provider

import "strings"

// The local model only cleans up the transcript; the remote models write the
// audience-facing digest.
const (
	localPromptTemplate = "请根据以下文字内容进行优化：\n\n{text}\n\n要求输出：\n" +
		"1. 仅根据上下文，调整分语言隔符\n" +
		"2. 为确保语义通顺情况下，可以调整部分单词\n" +
		"3. 【禁止】禁止添加任何其他内容"

	remotePromptTemplate = "请根据以下视频音频转写内容进行分析：\n\n{text}\n\n要求输出：\n" +
		"1. 输出内容是给学生和学生家长看的\n" +
		"2. 视频内容摘要（不超过100字）\n" +
		"3. 提取3个核心观点\n" +
		"4. 给出3个合适的短视频话题标签（如 #健康 #亲子 #创业）\n" +
		"5. 给学生和家长一句建议（以\"建议你……\"开头）"

	chatSystemPrompt = "你是一个专业的视频内容分析助手。"
)

// LocalPrompt builds the transcript clean-up prompt.
func LocalPrompt(text string) string {
	return strings.Replace(localPromptTemplate, "{text}", text, 1)
}

// RemotePrompt builds the summary prompt.
func RemotePrompt(text string) string {
	return strings.Replace(remotePromptTemplate, "{text}", text, 1)
}
