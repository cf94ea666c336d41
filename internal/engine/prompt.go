package engine

// LLM prompt templates: data only, no logic.

// ParseQueryPrompt extracts job title, location and experience from free text.
// Args: user query.
const ParseQueryPrompt = `You are a query parser for job salary searches. Extract the following information from the user query:

Query: "%s"

Extract:
1. Job Title (e.g., "Data Scientist", "Software Engineer")
2. Location (e.g., "USA", "Toronto", "New York")
3. Years of Experience (e.g., "2 years", "3-5 years", "entry level")

If any information is missing, make reasonable assumptions based on context.

Return ONLY this JSON object, no markdown, no explanation:
{
  "job_title": "extracted job title",
  "location": "extracted location",
  "years_experience": "extracted experience level"
}`

// StructureSalaryPrompt extracts salary records from search snippets.
// Args: job title, location, experience, formatted search results.
const StructureSalaryPrompt = `You are a salary data analyst. Analyze the following search results and extract structured salary information.

Job Title: %s
Location: %s
Experience: %s

Search Results:
%s

Extract salary information and return ONLY a JSON array in this format:
[
  {
    "min_salary": number or null,
    "max_salary": number or null,
    "average_salary": number or null,
    "currency": "USD" or appropriate currency code,
    "source": "source website/company name",
    "company": "company name if mentioned or null"
  }
]

Convert salary formats like:
- "80k-120k" to min_salary: 80000, max_salary: 120000
- "$95,000" to average_salary: 95000
- "100-150k USD" to min_salary: 100000, max_salary: 150000
- "₹12 LPA" to average_salary: 1200000, currency: "INR"

Extract multiple salary data points if available from different sources.
Do NOT invent data. Only extract what's in the search results. Return [] if nothing is found.`
