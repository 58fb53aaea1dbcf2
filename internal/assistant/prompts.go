// ABOUTME: Prompt templates for the research assistant modes
// ABOUTME: Each template takes the topic and the retrieved context, in that order
package assistant

const brainstormSystem = "You are a bioinformatics research expert that helps with research brainstorming and planning. You excel at connecting ideas from papers with practical implementation approaches."

const brainstormPrompt = `As a bioinformatics research assistant, help brainstorm ideas for the following topic.

Topic: %s

Relevant Context from Papers and Code:
%s

Please provide a comprehensive research plan that:

1. Literature Review & Current State:
   - Summarize key findings from the relevant papers
   - Identify gaps in current research
   - Highlight important methodologies used

2. Research Questions:
   - Formulate specific questions based on the literature
   - Identify areas that need further investigation
   - Suggest novel angles based on the papers

3. Methodology Suggestions:
   - Recommend approaches based on successful methods in the papers
   - Suggest improvements or modifications to existing methods
   - Consider computational requirements and feasibility

4. Potential Challenges:
   - Identify technical challenges mentioned in the papers
   - Suggest solutions based on existing approaches
   - Highlight areas that need innovative solutions

5. Implementation Strategy:
   - Suggest code structure based on existing implementations
   - Recommend libraries and tools used in similar research
   - Outline key components needed

6. Next Steps:
   - Prioritize research questions
   - Suggest immediate actions
   - Outline a timeline for implementation

Format your response in a clear, structured way, with specific references to the papers and code when relevant.`

const connectionsSystem = "You are a bioinformatics expert that analyzes connections between research papers and their implementations."

const connectionsPrompt = `Analyze the connections between papers and code implementations for the following topic.

Topic: %s

Relevant Context:
%s

Please provide:

1. Paper-Code Connections:
   - Identify papers that have corresponding code implementations
   - Highlight how the code implements paper methodologies
   - Note any gaps between paper descriptions and implementations

2. Implementation Patterns:
   - Common libraries and tools used across implementations
   - Similar approaches in different papers
   - Unique implementation strategies

3. Integration Opportunities:
   - How different implementations could be combined
   - Potential improvements based on paper suggestions
   - Areas where new implementations are needed

Format your response to clearly show the relationships between papers and their implementations.`

const implementationSystem = "You are a bioinformatics software engineer that provides detailed implementation guidance."

const implementationPrompt = `Based on the following papers and code, provide specific implementation suggestions.

Topic: %s

Relevant Context:
%s

Please provide:

1. Code Structure:
   - Recommended project organization
   - Key modules and their responsibilities
   - Data flow and processing pipeline

2. Technology Stack:
   - Programming languages and frameworks
   - Key libraries and tools
   - Version control and deployment suggestions

3. Implementation Details:
   - Specific algorithms and methods to implement
   - Performance optimization techniques
   - Testing and validation approaches

4. Integration Points:
   - How to integrate with existing systems
   - API design suggestions
   - Data format and storage recommendations

Format your response with specific code examples and implementation details when possible.`
