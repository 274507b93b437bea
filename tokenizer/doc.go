// Package tokenizer 提供响应 token 计数能力。
//
// 协议引擎在下游推理未上报用量时，用本包估算实际消耗的 token 数并
// 写入限流器。已知 OpenAI 系模型走 tiktoken 精确编码，其余模型退化
// 到字符估算（中英文分别计权）。
package tokenizer
