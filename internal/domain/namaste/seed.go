package namaste

// DefaultConcepts is the catalog served when no catalog file or database is
// configured.
func DefaultConcepts() []*SourceConcept {
	return []*SourceConcept{
		{
			Code:        "NAM001",
			Display:     "Vataja Jwara",
			Description: "Fever due to Vata imbalance - characterized by irregular fever patterns",
			Category:    "Fever Disorders",
			System:      "Ayurveda",
			Keywords:    []string{"fever", "vata", "irregular", "nervous"},
			Synonyms:    []string{"Vata Fever", "Irregular Fever"},
		},
		{
			Code:        "NAM002",
			Display:     "Pittaja Jwara",
			Description: "Fever due to Pitta imbalance - characterized by high temperature and burning sensation",
			Category:    "Fever Disorders",
			System:      "Ayurveda",
			Keywords:    []string{"fever", "pitta", "burning", "high temperature"},
			Synonyms:    []string{"Pitta Fever", "Burning Fever"},
		},
		{
			Code:        "NAM003",
			Display:     "Kaphaja Jwara",
			Description: "Fever due to Kapha imbalance - characterized by low-grade fever with heaviness",
			Category:    "Fever Disorders",
			System:      "Ayurveda",
			Keywords:    []string{"fever", "kapha", "heaviness", "low grade"},
			Synonyms:    []string{"Kapha Fever", "Heavy Fever"},
		},
		{
			Code:        "NAM004",
			Display:     "Madhumeha",
			Description: "Sweet urine disease - diabetes mellitus in Ayurveda",
			Category:    "Metabolic Disorders",
			System:      "Ayurveda",
			Keywords:    []string{"diabetes", "sweet", "urine", "metabolic"},
			Synonyms:    []string{"Diabetes", "Sweet Urine Disease"},
		},
		{
			Code:        "NAM005",
			Display:     "Rakta Gata Vata",
			Description: "Vata in blood channels - hypertension and circulation disorders",
			Category:    "Circulatory Disorders",
			System:      "Ayurveda",
			Keywords:    []string{"blood", "pressure", "circulation", "vata", "hypertension"},
			Synonyms:    []string{"Blood Pressure", "Hypertension"},
		},
		{
			Code:        "NAM006",
			Display:     "Hridroga",
			Description: "Heart diseases including cardiac disorders",
			Category:    "Cardiac Disorders",
			System:      "Ayurveda",
			Keywords:    []string{"heart", "cardiac", "chest", "circulation"},
			Synonyms:    []string{"Heart Disease", "Cardiac Disorder"},
		},
		{
			Code:        "NAM007",
			Display:     "Shwasa Roga",
			Description: "Breathing disorders including asthma and respiratory issues",
			Category:    "Respiratory Disorders",
			System:      "Ayurveda",
			Keywords:    []string{"asthma", "breathing", "respiratory", "lungs"},
			Synonyms:    []string{"Asthma", "Breathing Disorder"},
		},
		{
			Code:        "NAM008",
			Display:     "Amavata",
			Description: "Rheumatoid arthritis - joint inflammation due to ama and vata",
			Category:    "Musculoskeletal Disorders",
			System:      "Ayurveda",
			Keywords:    []string{"arthritis", "joints", "inflammation", "rheumatoid"},
			Synonyms:    []string{"Rheumatoid Arthritis", "Joint Inflammation"},
		},
		{
			Code:        "NAM009",
			Display:     "Kushtha Roga",
			Description: "Skin diseases including eczema, psoriasis and dermatitis",
			Category:    "Skin Disorders",
			System:      "Ayurveda",
			Keywords:    []string{"skin", "eczema", "psoriasis", "dermatitis"},
			Synonyms:    []string{"Skin Disease", "Dermatitis"},
		},
		{
			Code:        "NAM010",
			Display:     "Apasmara",
			Description: "Epilepsy and seizure disorders affecting consciousness",
			Category:    "Neurological Disorders",
			System:      "Ayurveda",
			Keywords:    []string{"epilepsy", "seizure", "neurological", "consciousness"},
			Synonyms:    []string{"Epilepsy", "Seizure Disorder"},
		},
	}
}
