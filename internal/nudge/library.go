package nudge

// Library maps each category and stage to its candidate messages.
type Library map[Category]map[Stage][]string

// Candidates returns the messages for c at stage, or nil.
func (l Library) Candidates(c Category, stage Stage) []string {
	return l[c][stage]
}

// DefaultLibrary returns the built-in reflective messages.
func DefaultLibrary() Library {
	return Library{
		CategoryCalm: {
			StageEarly: {
				"A few days of choosing calm. Has anything softened yet?",
				"Calm is a practice, not a mood. You've started practicing.",
				"Notice one moment today when you didn't need to rush.",
			},
			StageMid: {
				"A week with calm as your intention. Where does it show up most easily?",
				"Calm has had a week to settle in. What still pulls you off balance?",
				"Seven days in. Calm might feel quieter now, not louder.",
			},
			StageLate: {
				"Two weeks or more of calm. Is it still the intention you need?",
				"Calm has been with you a while. Consider whether to keep it or let it rest.",
				"Long-held calm can turn into a baseline. Take a moment to notice it.",
			},
		},
		CategoryClarity: {
			StageEarly: {
				"A few days of seeking clarity. What's one thing that feels a little clearer?",
				"Clarity often starts as noticing what you don't want.",
				"Write down the question you keep circling back to.",
			},
			StageMid: {
				"A week of clarity as your guide. What have you let go of?",
				"Seven days in. Clarity can be quiet. Listen for it.",
				"Is the picture sharper than it was last week?",
			},
			StageLate: {
				"Clarity has been your intention for a while. Has it answered what you asked?",
				"Two weeks of looking closely. Maybe it's time to act on what you see.",
				"Long after choosing clarity, check whether the question has changed.",
			},
		},
		CategoryFocus: {
			StageEarly: {
				"A few days of focus. What's been easier to finish?",
				"Focus grows in short stretches. Protect one today.",
				"Notice what tends to pull your attention away.",
			},
			StageMid: {
				"A week of focus. Which hours are your clearest?",
				"Seven days in. Focus might need a rest as much as a push.",
				"What did focus help you complete this week?",
			},
			StageLate: {
				"Focus has been your intention for weeks. Is it still serving you?",
				"Long stretches of focus deserve a pause. Take one on purpose.",
				"Look back at what two weeks of focus made possible.",
			},
		},
		CategoryRest: {
			StageEarly: {
				"A few days of prioritizing rest. How is your body responding?",
				"Rest counts, even when it doesn't feel productive.",
				"Find one small pause today and let it be enough.",
			},
			StageMid: {
				"A week of choosing rest. What feels restored?",
				"Seven days in. Rest can take longer than we expect.",
				"Has rest changed how you start your mornings?",
			},
			StageLate: {
				"Rest has been your intention for a while. Are you ready for something new, or is more rest needed?",
				"Two weeks of rest. Honor how far you've come.",
				"Long rest builds quiet strength. Notice where it shows.",
			},
		},
		CategoryConnection: {
			StageEarly: {
				"A few days of seeking connection. Who came to mind first?",
				"Connection can start with a single message.",
				"Notice who leaves you feeling more like yourself.",
			},
			StageMid: {
				"A week of connection. Which conversation stayed with you?",
				"Seven days in. Connection with yourself counts too.",
				"Who could you reach out to this week, just to say hello?",
			},
			StageLate: {
				"Connection has been your intention for weeks. What relationships have deepened?",
				"Two weeks of reaching out. Is there someone you've been meaning to thank?",
				"Long-held connection deserves a moment of gratitude.",
			},
		},
		CategoryMixed: {
			StageEarly: {
				"You've been holding a few intentions. Which one feels most alive today?",
				"A few days in. Let your intentions support each other.",
				"Several intentions at once is okay. Start where it's easiest.",
			},
			StageMid: {
				"A week of mixed intentions. Has one started to lead?",
				"Seven days in. Notice where your intentions overlap.",
				"What's one small thing that served more than one intention this week?",
			},
			StageLate: {
				"Your intentions have been with you a while. Is it time to retune?",
				"Two weeks of holding several intentions. Which would you keep if you chose one?",
				"Long-held intentions shift. Check in with what you need now.",
			},
		},
	}
}
