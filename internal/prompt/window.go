// Package prompt builds the bounded context window sent to the external
// model for each chat request. It is the single place where the domain's
// sender enum is translated into the external API's role vocabulary.
package prompt

import (
	"github.com/mindhaven/go-support-backend/internal/domain"
	"github.com/mindhaven/go-support-backend/internal/llm"
)

// DefaultHistoryLimit is the number of prior transcript turns included when
// the caller does not configure one.
const DefaultHistoryLimit = 10

// SystemPrompt frames the assistant's role and safety posture. The external
// API has no dedicated system channel in this integration, so it travels as
// the first user turn, paired with a fixed model acknowledgment.
const SystemPrompt = `You are a compassionate mental health support chatbot. Your role is to:

1. Provide empathetic, non-judgmental emotional support
2. Use active listening techniques and validate feelings
3. Suggest healthy coping strategies and self-care practices
4. Recognize signs of crisis and provide appropriate resources
5. NEVER diagnose mental health conditions or provide medical advice
6. Encourage professional help when appropriate
7. Maintain appropriate boundaries as a support tool, not a replacement for therapy

Crisis Resources:
- National Suicide Prevention Lifeline: 988 (US)
- Crisis Text Line: Text HOME to 741741
- International Association for Suicide Prevention: https://www.iasp.info/resources/Crisis_Centres/

Always prioritize user safety and well-being. If someone expresses suicidal thoughts or immediate danger, provide crisis resources immediately.`

// Acknowledgment is the fixed model-role turn that anchors the framing pair.
const Acknowledgment = "I understand my role as a compassionate mental health support chatbot. " +
	"I'm here to listen, provide emotional support, and help you navigate difficult feelings " +
	"while prioritizing your safety and well-being. How can I support you today?"

// Build assembles the ordered window for one model call:
//
//	[system prompt (user role), acknowledgment (model role),
//	 up to historyLimit most recent transcript turns in order,
//	 newMessage (user role)]
//
// The transcript holds prior turns only; the new message must not already be
// appended. Build never mutates transcript. historyLimit <= 0 selects
// DefaultHistoryLimit.
func Build(systemPrompt string, transcript []domain.ChatTurn, newMessage string, historyLimit int) []llm.Turn {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	recent := transcript
	if len(recent) > historyLimit {
		recent = recent[len(recent)-historyLimit:]
	}

	window := make([]llm.Turn, 0, len(recent)+3)
	window = append(window,
		llm.Turn{Role: llm.RoleUser, Text: systemPrompt},
		llm.Turn{Role: llm.RoleModel, Text: Acknowledgment},
	)
	for _, t := range recent {
		window = append(window, llm.Turn{Role: roleFor(t.Sender), Text: t.Text})
	}
	return append(window, llm.Turn{Role: llm.RoleUser, Text: newMessage})
}

// roleFor maps the closed sender enum onto the external role vocabulary.
// Anything that is not the user speaks as the model.
func roleFor(s domain.Sender) string {
	if s == domain.SenderUser {
		return llm.RoleUser
	}
	return llm.RoleModel
}
