package embedding

import "testing"

func TestSimpleTokenizer(t *testing.T) {
	tok := &SimpleTokenizer{}
	inputIDs, attentionMask, tokenTypeIDs := tok.Tokenize("hello world", 8)
	if len(inputIDs) != 8 || len(attentionMask) != 8 || len(tokenTypeIDs) != 8 {
		t.Fatal("all outputs must be padded to maxTokens")
	}
	if inputIDs[0] != 101 {
		t.Errorf("first token = %d, want [CLS] 101", inputIDs[0])
	}
	if attentionMask[0] != 1 || attentionMask[1] != 1 || attentionMask[2] != 1 {
		t.Error("attention mask must cover CLS and both words")
	}
	if inputIDs[3] != 102 {
		t.Errorf("token after words = %d, want [SEP] 102", inputIDs[3])
	}

	again, _, _ := tok.Tokenize("hello world", 8)
	for i := range inputIDs {
		if again[i] != inputIDs[i] {
			t.Fatal("tokenization must be deterministic")
		}
	}
}

func TestSimpleTokenizer_TruncatesLongText(t *testing.T) {
	tok := &SimpleTokenizer{}
	inputIDs, _, _ := tok.Tokenize("a b c d e f g h i j", 4)
	if len(inputIDs) != 4 {
		t.Fatalf("length %d, want 4", len(inputIDs))
	}
}
