package memory

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	m := Default()

	assert.Equal(t, DefaultRelationship, m.CoreMemory.Relationship)
	assert.Empty(t, m.CoreMemory.UserName)
	assert.NotNil(t, m.CoreMemory.ImportantFacts)
	assert.NotNil(t, m.RecentTopics)
	assert.NotNil(t, m.IdentifiedChallenges)
	assert.NotNil(t, m.UserPreferences)
	assert.Zero(t, m.InteractionCount)
	assert.Nil(t, m.LastInteraction)

	data, err := m.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"core_memory": {
			"user_name": "", "email": "", "company": "", "role": "",
			"relationship": "New acquaintance", "personality_notes": "", "important_facts": []
		},
		"conversation_summary": "",
		"recent_topics": [],
		"identified_challenges": [],
		"user_preferences": {},
		"interaction_count": 0,
		"last_interaction": null
	}`, string(data))
}

func TestNewSeedsFromVisitor(t *testing.T) {
	m := New(Seed{
		Name:        " Jane ",
		Email:       "jane@example.com",
		Company:     "Acme",
		Preferences: []byte(`{"tone":"formal","channels":["email"]}`),
	})

	assert.Equal(t, "Jane", m.CoreMemory.UserName)
	assert.Equal(t, "jane@example.com", m.CoreMemory.Email)
	assert.Equal(t, "Acme", m.CoreMemory.Company)
	assert.Empty(t, m.CoreMemory.Role)
	assert.Equal(t, String("formal"), m.UserPreferences["tone"])
	assert.Equal(t, List(String("email")), m.UserPreferences["channels"])
}

func TestNewIgnoresNonObjectPreferences(t *testing.T) {
	for _, prefs := range []string{`[1,2]`, `"x"`, `not json`} {
		m := New(Seed{Preferences: []byte(prefs)})
		assert.Empty(t, m.UserPreferences, prefs)
	}
}

func TestTouch(t *testing.T) {
	m := Default()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("PST", -8*3600))

	m.Touch(now)
	m.Touch(now)

	assert.Equal(t, 2, m.InteractionCount)
	require.NotNil(t, m.LastInteraction)
	assert.True(t, now.Equal(*m.LastInteraction))
	assert.Equal(t, time.UTC, m.LastInteraction.Location())
}

func TestDecodeRepairs(t *testing.T) {
	tests := []struct {
		name  string
		blob  string
		check func(t *testing.T, m *Memory)
	}{
		{
			name: "list fields holding scalars become empty lists",
			blob: `{"core_memory":{"important_facts":"oops"},"recent_topics":7,"identified_challenges":{"a":1}}`,
			check: func(t *testing.T, m *Memory) {
				assert.Equal(t, []string{}, m.CoreMemory.ImportantFacts)
				assert.Equal(t, []string{}, m.RecentTopics)
				assert.Equal(t, []string{}, m.IdentifiedChallenges)
			},
		},
		{
			name: "non-string list items are dropped",
			blob: `{"recent_topics":[1,"ai",null,{"x":1},"pricing"]}`,
			check: func(t *testing.T, m *Memory) {
				assert.Equal(t, []string{"ai", "pricing"}, m.RecentTopics)
			},
		},
		{
			name: "wrong scalar types are stringified",
			blob: `{"core_memory":{"company":42,"role":true,"user_name":"Ann"},"conversation_summary":3.5}`,
			check: func(t *testing.T, m *Memory) {
				assert.Equal(t, "42", m.CoreMemory.Company)
				assert.Equal(t, "true", m.CoreMemory.Role)
				assert.Equal(t, "Ann", m.CoreMemory.UserName)
				assert.Equal(t, "3.5", m.ConversationSummary)
			},
		},
		{
			name: "null contact fields keep defaults",
			blob: `{"core_memory":{"user_name":"Unknown","email":null,"relationship":null}}`,
			check: func(t *testing.T, m *Memory) {
				assert.Equal(t, "Unknown", m.CoreMemory.UserName)
				assert.Empty(t, m.CoreMemory.Email)
				assert.Equal(t, DefaultRelationship, m.CoreMemory.Relationship)
			},
		},
		{
			name: "unknown top-level keys are dropped",
			blob: `{"__proto__":{"polluted":true},"extra":1,"interaction_count":"3"}`,
			check: func(t *testing.T, m *Memory) {
				assert.Equal(t, 3, m.InteractionCount)
				data, err := m.Encode()
				require.NoError(t, err)
				assert.NotContains(t, string(data), "polluted")
				assert.NotContains(t, string(data), "extra")
			},
		},
		{
			name: "non-object preferences are reset",
			blob: `{"user_preferences":["a"]}`,
			check: func(t *testing.T, m *Memory) {
				assert.Equal(t, map[string]Value{}, m.UserPreferences)
			},
		},
		{
			name: "timestamp is parsed",
			blob: `{"last_interaction":"2025-01-02T03:04:05Z"}`,
			check: func(t *testing.T, m *Memory) {
				require.NotNil(t, m.LastInteraction)
				assert.True(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC).Equal(*m.LastInteraction))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Decode([]byte(tt.blob))
			require.NoError(t, err)
			tt.check(t, m)
		})
	}
}

func TestDecodeFallsBackToDefaults(t *testing.T) {
	for _, blob := range []string{"{not json", `[1,2,3]`} {
		m, err := Decode([]byte(blob))
		assert.Error(t, err, blob)
		assert.Equal(t, Default(), m)
	}

	m, err := Decode(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), m)

	m, err = Decode([]byte("null"))
	require.NoError(t, err)
	assert.Equal(t, Default(), m)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	blobs := []string{
		`{}`,
		`{"core_memory":{"user_name":"Jane","email":"jane@example.com","important_facts":["Uses Salesforce"]},
		  "recent_topics":["automation"],"identified_challenges":["Scaling support"],
		  "user_preferences":{"tone":"formal","contact":{"hours":[9,17],"sms":false},"nothing":null},
		  "interaction_count":4,"last_interaction":"2025-01-02T03:04:05.123Z"}`,
		`{"core_memory":{"important_facts":"oops","company":7},"recent_topics":[1,"x"]}`,
	}

	for _, blob := range blobs {
		first, err := Decode([]byte(blob))
		require.NoError(t, err)

		data, err := first.Encode()
		require.NoError(t, err)

		second, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		again, err := second.Encode()
		require.NoError(t, err)
		assert.JSONEq(t, string(data), string(again))
	}
}

func TestValueJSON(t *testing.T) {
	v := Object(map[string]Value{
		"b": Bool(true),
		"a": List(String("x"), Number(2)),
		"n": Null(),
	})

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"a":["x",2],"b":true,"n":null}`, string(data))

	var back Value
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, v, back)
	assert.Equal(t, KindObject, back.Kind())

	field, ok := back.Field("a")
	require.True(t, ok)
	assert.Len(t, field.Items(), 2)
	assert.Equal(t, `["x",2]`, field.Text())
}
